// Package jinjamsg provides translated messages to templates through the
// gettext family of global functions, as Jinja's i18n extension does.
//
// Templates call the functions directly:
//
//	{{ _('Hello, %(name)s!', name=user.name) }}
//	{{ ngettext('%(num)d apple', '%(num)d apples', apples | length) }}
//	{{ pgettext('month', 'May') }}
//
// Messages are looked up in a Catalog loaded from PO files. Untranslated
// messages render in the source language.
package jinjamsg

import (
	"github.com/robfig/gettext/po"

	"github.com/robfig/jinja/data"
	"github.com/robfig/jinja/errortypes"
	"github.com/robfig/jinja/render"
)

// Provider provides catalogs for locales.
type Provider interface {
	// Catalog returns the catalog for the given locale, falling back to more
	// general locales (pt_BR to pt) if necessary. It returns nil if none is
	// found; a nil Catalog renders messages untranslated.
	Catalog(locale string) *Catalog
}

// Catalog holds the translated messages for a single locale.
type Catalog struct {
	locale    string
	messages  map[string]po.Message
	pluralize po.PluralSelector
}

// ctxtSep separates the context from the msgid in a lookup key, as in MO
// files.
const ctxtSep = "\x04"

func newCatalog(locale string, file po.File) (*Catalog, error) {
	var pluralize = file.Pluralize
	if pluralize == nil {
		pluralize = po.PluralSelectorForLanguage(locale)
	}
	if pluralize == nil {
		return nil, errortypes.Newf(errortypes.RuntimeError, "%s: Plural-Forms must be specified", locale)
	}
	var messages = make(map[string]po.Message)
	for _, msg := range file.Messages {
		if msg.Id == "" || !translated(msg) {
			continue
		}
		messages[key(msg.Ctxt, msg.Id)] = msg
	}
	return &Catalog{locale, messages, pluralize}, nil
}

func translated(msg po.Message) bool {
	for _, str := range msg.Str {
		if str == "" {
			return false
		}
	}
	return len(msg.Str) > 0
}

func key(ctxt, msgid string) string {
	if ctxt == "" {
		return msgid
	}
	return ctxt + ctxtSep + msgid
}

// Locale returns the locale of the catalog's messages.
func (c *Catalog) Locale() string {
	if c == nil {
		return ""
	}
	return c.locale
}

// Gettext returns the translation of msgid, or msgid itself.
func (c *Catalog) Gettext(msgid string) string {
	return c.Pgettext("", msgid)
}

// Pgettext returns the translation of msgid in the given context.
func (c *Catalog) Pgettext(ctxt, msgid string) string {
	if c == nil {
		return msgid
	}
	if msg, ok := c.messages[key(ctxt, msgid)]; ok {
		return msg.Str[0]
	}
	return msgid
}

// Ngettext returns the translation of the message with the plural form for
// n. Untranslated messages choose between msgid and plural by English rules.
func (c *Catalog) Ngettext(msgid, plural string, n int) string {
	if c != nil {
		if msg, ok := c.messages[key("", msgid)]; ok {
			var i = c.pluralize(n)
			if i >= 0 && i < len(msg.Str) {
				return msg.Str[i]
			}
		}
	}
	if n == 1 {
		return msgid
	}
	return plural
}

// Globals returns the gettext functions bound to this catalog, for adding to
// an Environment:
//
//	env.AddGlobals(catalog.Globals())
func (c *Catalog) Globals() map[string]render.Global {
	return map[string]render.Global{
		"gettext":  c.gettext,
		"_":        c.gettext,
		"ngettext": c.ngettext,
		"pgettext": c.pgettext,
	}
}

func (c *Catalog) gettext(args []data.Value, kwargs *data.Map, _ *render.Environment) (data.Value, error) {
	strs, err := stringArgs("gettext", args, 1)
	if err != nil {
		return nil, err
	}
	return substitute(c.Gettext(strs[0]), kwargs)
}

func (c *Catalog) pgettext(args []data.Value, kwargs *data.Map, _ *render.Environment) (data.Value, error) {
	strs, err := stringArgs("pgettext", args, 2)
	if err != nil {
		return nil, err
	}
	return substitute(c.Pgettext(strs[0], strs[1]), kwargs)
}

// ngettext makes the count available to the message as "num" unless a
// variable of that name is given.
func (c *Catalog) ngettext(args []data.Value, kwargs *data.Map, _ *render.Environment) (data.Value, error) {
	if len(args) != 3 {
		return nil, errortypes.Newf(errortypes.ArgumentError,
			"ngettext expected 3 arguments, got %d", len(args))
	}
	strs, err := stringArgs("ngettext", args[:2], 2)
	if err != nil {
		return nil, err
	}
	n, ok := args[2].(data.Int)
	if !ok {
		return nil, errortypes.Newf(errortypes.RuntimeError,
			"ngettext: expected an integer count, got %s", data.TypeName(args[2]))
	}
	var vars = kwargs.Copy()
	if !vars.Has("num") {
		vars.Set("num", n)
	}
	return substitute(c.Ngettext(strs[0], strs[1], int(n)), vars)
}

func stringArgs(name string, args []data.Value, n int) ([]string, error) {
	if len(args) != n {
		return nil, errortypes.Newf(errortypes.ArgumentError,
			"%s expected %d arguments, got %d", name, n, len(args))
	}
	var strs = make([]string, n)
	for i, arg := range args {
		s, ok := arg.(data.String)
		if !ok {
			return nil, errortypes.Newf(errortypes.RuntimeError,
				"%s: expected a string, got %s", name, data.TypeName(arg))
		}
		strs[i] = string(s)
	}
	return strs, nil
}

// substitute replaces %(name)s placeholders with the variables. Messages
// without variables are returned as they are.
func substitute(msg string, vars *data.Map) (data.Value, error) {
	if vars.Len() == 0 {
		return data.String(msg), nil
	}
	s, err := data.Format(msg, nil, vars)
	if err != nil {
		return nil, err
	}
	return data.String(s), nil
}
