package assets

import "errors"

// AssetResolver tries a custom directory first and falls back to the
// embedded assets when an asset is not found there.
type AssetResolver struct {
	custom   AssetLoader // nil if no custom path configured
	embedded AssetLoader
}

// NewAssetResolver creates an AssetResolver. An empty customBasePath uses
// embedded assets only.
func NewAssetResolver(customBasePath string) (*AssetResolver, error) {
	r := &AssetResolver{embedded: NewEmbeddedLoader()}
	if customBasePath != "" {
		fsLoader, err := NewFilesystemLoader(customBasePath)
		if err != nil {
			return nil, err
		}
		r.custom = fsLoader
	}
	return r, nil
}

func (r *AssetResolver) LoadStyle(name string) (string, error) {
	return r.loadWithFallback(func(l AssetLoader) (string, error) {
		return l.LoadStyle(name)
	})
}

func (r *AssetResolver) LoadTemplate(name string) (string, error) {
	return r.loadWithFallback(func(l AssetLoader) (string, error) {
		return l.LoadTemplate(name)
	})
}

// loadWithFallback falls back only on not-found errors; validation and
// I/O errors from the custom directory are returned as is.
func (r *AssetResolver) loadWithFallback(load func(AssetLoader) (string, error)) (string, error) {
	if r.custom == nil {
		return load(r.embedded)
	}
	content, err := load(r.custom)
	if err == nil {
		return content, nil
	}
	if !errors.Is(err, ErrStyleNotFound) && !errors.Is(err, ErrTemplateNotFound) {
		return "", err
	}
	return load(r.embedded)
}

// HasCustomLoader reports whether a custom directory is configured.
func (r *AssetResolver) HasCustomLoader() bool {
	return r.custom != nil
}

var _ AssetLoader = (*AssetResolver)(nil)
