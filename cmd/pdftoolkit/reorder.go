package main

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	pdftoolkit "github.com/techVasanthsmart/pdf-toolkit"
)

// pageMove moves the page at 1-based position From to position To.
type pageMove struct {
	From, To int
}

// parseMove parses "FROM:TO".
func parseMove(s string) (pageMove, error) {
	from, to, ok := strings.Cut(s, ":")
	if !ok {
		return pageMove{}, usageError(fmt.Errorf("--move %q: want FROM:TO", s))
	}
	f, err1 := strconv.Atoi(strings.TrimSpace(from))
	t, err2 := strconv.Atoi(strings.TrimSpace(to))
	if err1 != nil || err2 != nil {
		return pageMove{}, usageError(fmt.Errorf("--move %q: positions must be numbers", s))
	}
	return pageMove{From: f, To: t}, nil
}

// applyEdits applies moves in order, then removes the given positions
// counted after the moves. Positions are 1-based.
func applyEdits(seq *pdftoolkit.Sequence, moves []pageMove, remove []int) error {
	for _, m := range moves {
		if err := checkPosition(seq, m.From); err != nil {
			return err
		}
		if err := checkPosition(seq, m.To); err != nil {
			return err
		}
		if err := seq.Reorder(m.From-1, m.To-1); err != nil {
			return err
		}
	}

	positions := slices.Clone(remove)
	slices.Sort(positions)
	positions = slices.Compact(positions)
	for _, p := range positions {
		if err := checkPosition(seq, p); err != nil {
			return err
		}
	}
	// Highest first, so earlier removals do not shift later ones.
	for _, p := range slices.Backward(positions) {
		if err := seq.RemoveAt(p - 1); err != nil {
			return err
		}
	}
	if seq.Len() == 0 {
		return usageError(errors.New("--remove would leave no pages"))
	}
	return nil
}

func checkPosition(seq *pdftoolkit.Sequence, pos int) error {
	if pos < 1 || pos > seq.Len() {
		return fmt.Errorf("%w: page %d (document has %d pages)", pdftoolkit.ErrPosition, pos, seq.Len())
	}
	return nil
}

// runReorder loads one PDF into a workflow, edits its page sequence and
// writes "<name>-reordered.pdf".
func runReorder(ctx context.Context, args []string, env *Environment) (err error) {
	f, inputs, err := parseReorderFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	input, err := requireOne(inputs)
	if err != nil {
		return err
	}
	if len(f.moves) == 0 && len(f.remove) == 0 {
		return usageError(errors.New("nothing to do: use --move or --remove"))
	}
	moves := make([]pageMove, 0, len(f.moves))
	for _, m := range f.moves {
		pm, err := parseMove(m)
		if err != nil {
			return err
		}
		moves = append(moves, pm)
	}

	s, err := newSession(&f.common, env)
	if err != nil {
		return err
	}
	defer s.finish(&err)

	doc, err := readPDF(input)
	if err != nil {
		return err
	}
	tk, err := s.newToolkit()
	if err != nil {
		return err
	}
	defer tk.Close()

	wf := pdftoolkit.NewWorkflow(dirPublisher{s: s})
	if err := wf.Load(doc); err != nil {
		return err
	}
	if err := applyEdits(wf.Sequence(), moves, f.remove); err != nil {
		return err
	}
	s.verbosef("workflow %s: %d of %d pages", wf.ID(), wf.Sequence().Len(), doc.PageCount())

	leases, err := wf.Run(ctx, func(ctx context.Context, refs []pdftoolkit.PageRef, _ pdftoolkit.HandleResolver) ([]pdftoolkit.Artifact, error) {
		art, err := tk.Reorder(ctx, doc, refs)
		if err != nil {
			return nil, err
		}
		return []pdftoolkit.Artifact{*art}, nil
	})
	if err != nil {
		return err
	}
	for _, l := range leases {
		s.created(l.Location())
	}
	return nil
}
