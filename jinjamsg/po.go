package jinjamsg

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/robfig/gettext/po"
)

// FileOpener opens the PO file for a locale.
type FileOpener interface {
	// Open returns the PO file for locale, or nil if it does not exist.
	Open(locale string) (io.ReadCloser, error)
}

type provider struct {
	catalogs map[string]*Catalog // by canonical locale
}

// Load returns a Provider holding the catalogs for the given locales, read
// through the opener. Locales without a PO file are skipped.
func Load(opener FileOpener, locales []string) (Provider, error) {
	var prov = provider{make(map[string]*Catalog)}
	for _, locale := range locales {
		names, err := fallbacks(locale)
		if err != nil {
			return nil, err
		}
		r, err := opener.Open(locale)
		if err != nil {
			return nil, err
		}
		if r == nil {
			continue
		}
		file, err := po.Parse(r)
		r.Close()
		if err != nil {
			return nil, err
		}
		catalog, err := newCatalog(names[0], file)
		if err != nil {
			return nil, err
		}
		prov.catalogs[names[0]] = catalog
	}
	return prov, nil
}

func (p provider) Catalog(locale string) *Catalog {
	names, err := fallbacks(locale)
	if err != nil {
		return nil
	}
	for _, name := range names {
		if catalog, ok := p.catalogs[name]; ok {
			return catalog
		}
	}
	return nil
}

// dirOpener opens PO files named for their locale within a directory.
type dirOpener string

func (d dirOpener) Open(locale string) (io.ReadCloser, error) {
	switch f, err := os.Open(filepath.Join(string(d), locale+".po")); {
	case os.IsNotExist(err):
		return nil, nil
	case err != nil:
		return nil, err
	default:
		return f, nil
	}
}

// Dir returns a Provider that takes translations from the PO files in the
// given directory, named for their locale:
//
//	/usr/local/msgs/<lang>.po
//	/usr/local/msgs/<lang>_<territory>.po
func Dir(dirname string) (Provider, error) {
	entries, err := os.ReadDir(dirname)
	if err != nil {
		return nil, err
	}
	var locales []string
	for _, entry := range entries {
		var name = entry.Name()
		if !entry.IsDir() && strings.HasSuffix(name, ".po") {
			locales = append(locales, strings.TrimSuffix(name, ".po"))
		}
	}
	return Load(dirOpener(dirname), locales)
}
