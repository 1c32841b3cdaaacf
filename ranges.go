package pdftoolkit

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseRanges turns a page selection such as "1-3, 5, 7" into 1-based page
// numbers in input order. A range "a-b" expands from the lower to the
// higher bound whichever way it is written; duplicates are kept. Every
// number must lie in [1, pageCount].
func ParseRanges(input string, pageCount int) ([]int, error) {
	if strings.TrimSpace(input) == "" {
		return nil, newError(ErrEmptyRange, "Enter a page range.", nil)
	}

	var pages []int
	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if strings.Contains(part, "-") {
			lo, hi, ok := parseSpan(part, pageCount)
			if !ok {
				return nil, newError(ErrBadRange,
					fmt.Sprintf("Invalid range %q. Use numbers between 1 and %d.", part, pageCount),
					fmt.Errorf("%q", part))
			}
			for n := lo; n <= hi; n++ {
				pages = append(pages, n)
			}
			continue
		}

		n, ok := parsePage(part, pageCount)
		if !ok {
			return nil, newError(ErrBadPage,
				fmt.Sprintf("Invalid page %q. Use numbers between 1 and %d.", part, pageCount),
				fmt.Errorf("%q", part))
		}
		pages = append(pages, n)
	}

	if len(pages) == 0 {
		return nil, newError(ErrEmptyRange, "Enter a page range.", nil)
	}
	return pages, nil
}

// parseSpan parses "a-b" with exactly one dash.
func parseSpan(part string, pageCount int) (lo, hi int, ok bool) {
	a, b, found := strings.Cut(part, "-")
	if !found || strings.Contains(b, "-") {
		return 0, 0, false
	}
	x, okA := parsePage(strings.TrimSpace(a), pageCount)
	y, okB := parsePage(strings.TrimSpace(b), pageCount)
	if !okA || !okB {
		return 0, 0, false
	}
	return min(x, y), max(x, y), true
}

func parsePage(s string, pageCount int) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > pageCount {
		return 0, false
	}
	return n, true
}

// RefsForPages maps 1-based page numbers of h to page refs.
func RefsForPages(h DocumentHandle, pages []int) ([]PageRef, error) {
	refs := make([]PageRef, len(pages))
	for i, n := range pages {
		if n < 1 || n > h.PageCount() {
			return nil, fmt.Errorf("%w: page %d of %d in %s", ErrPageIndex, n, h.PageCount(), h.Name())
		}
		refs[i] = PageRef{Handle: h.ID(), Index: n - 1}
	}
	return refs, nil
}
