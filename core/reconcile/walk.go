package reconcile

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"syscall"

	"bitrot-detector/core/paths"
)

// enumerate lists the regular files below root in walk order. Directories
// that cannot be read are reported through onError and skipped.
func (e *Engine) enumerate(ctx context.Context, root string, onError func(path string, err error)) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == root {
				return err
			}
			if d != nil && d.IsDir() && isNameTooLong(err) {
				return e.walkDeep(ctx, root, path, &files, onError)
			}
			onError(path, err)
			return nil
		}

		if d.IsDir() {
			if path != root && (d.Name() == e.opts.StoreDir || e.excluded(root, path, d.Name())) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() || e.excluded(root, path, d.Name()) {
			return nil
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}

// walkDeep continues enumeration below a directory whose path is too long
// for the regular walk.
func (e *Engine) walkDeep(ctx context.Context, root, dir string, files *[]string, onError func(path string, err error)) error {
	entries, err := paths.ReadDir(dir)
	if err != nil {
		onError(dir, err)
		return nil
	}

	for _, d := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := dir + string(filepath.Separator) + d.Name()
		switch {
		case d.IsDir():
			if e.excluded(root, path, d.Name()) {
				continue
			}
			if err := e.walkDeep(ctx, root, path, files, onError); err != nil {
				return err
			}
		case d.Type().IsRegular() && !e.excluded(root, path, d.Name()):
			*files = append(*files, path)
		}
	}
	return nil
}

func isNameTooLong(err error) bool {
	return errors.Is(err, syscall.ENAMETOOLONG)
}

// excluded matches a path against the configured glob patterns, both by
// base name and by slash-separated path relative to root.
func (e *Engine) excluded(root, path, name string) bool {
	if len(e.opts.Exclude) == 0 {
		return false
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)

	for _, pattern := range e.opts.Exclude {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
		if ok, _ := filepath.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}
