/*
Package jinja is an implementation of the Jinja template language, covering
the subset used by chat templates and configuration generators: expressions,
filters and tests, control structures, macros, call and filter blocks, and
namespaces.

See the Jinja documentation for the syntax and the builtin filters and tests:

https://jinja.palletsprojects.com/en/stable/templates/

Usage example

For a one-off template, Render parses and renders in one step:

  out, err := jinja.Render("Hello {{ name | title }}!", map[string]interface{}{
      "name": "world",
  })

Typically in a web application you have a directory containing views for all
of your pages. For example:

  app/views/
  app/views/account/
  app/views/feed/
  ...

This code snippet will parse a file of globals and all templates within
app/views, and provide back an Environment and Registry that can be used to
render any of them. (Error checking is skipped.)

On startup:

  env, registry, _ := jinja.NewBundle().
      WatchFiles(mode == "dev").             // watch template files, reload on changes (in dev)
      AddGlobalsFile("views/globals.yaml").  // parse a file of globals
      AddTemplateDir("views").               // load *.jinja in all sub-directories
      CompileToEnvironment()

To render a page:

  var ctx = data.NewMap(
      "user", user,
      "account", account,
  )
  out, err := env.Render(registry.Template("account/overview.jinja").Node, ctx)

Translations

Messages may be translated with gettext PO files; see the jinjamsg package.

  msgs, _ := jinjamsg.Dir("messages")
  env.AddGlobals(msgs.Catalog("pt_BR").Globals())

Advanced Usage

The jinja package provides a friendly interface to its sub-packages. Advanced
usages like automated template rewriting will be better served by using
e.g. jinja/parse directly.
*/
package jinja
