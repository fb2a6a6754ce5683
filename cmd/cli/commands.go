package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/and161185/locadmin/internal/client"
	"github.com/and161185/locadmin/internal/config"
	"github.com/and161185/locadmin/internal/errs"
	"github.com/and161185/locadmin/internal/model"
	"github.com/and161185/locadmin/internal/service"
	"github.com/and161185/locadmin/internal/session"
	"github.com/and161185/locadmin/internal/store"
)

// app holds the wired stack and renders command output.
type app struct {
	cfg    config.Config
	api    *client.Client
	sess   *session.Store
	domain *store.Store
	svc    *service.Service
	out    io.Writer
}

// prompt reflects the signed-in user and selected project.
func (a *app) prompt() string {
	user := a.sess.Username()
	if user == "" {
		return "locadmin> "
	}
	st := a.domain.State()
	if st.CurrentProject == nil {
		return user + "> "
	}
	p := user + "/" + st.CurrentProject.Name
	if st.CurrentLanguage != nil {
		p += ":" + st.CurrentLanguage.Code
	}
	return p + "> "
}

// flushError prints and clears the global error banner.
func (a *app) flushError() {
	msg := a.domain.State().Error
	if msg == "" {
		return
	}
	fmt.Fprintf(a.out, "error: %s\n", errs.FormatMessage(msg))
	a.domain.SetError("")
}

func (a *app) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), a.cfg.RequestTimeout)
}

// dispatch runs one console command line.
func (a *app) dispatch(line string) {
	args := strings.Fields(line)
	cmd, rest := args[0], args[1:]

	switch cmd {
	case "help":
		a.cmdHelp()
	case "version":
		fmt.Fprintf(a.out, "locadmin %s (%s)\n", version, buildDate)
	case "login":
		a.cmdLogin(rest)
	case "register":
		a.cmdRegister(rest)
	case "logout":
		a.cmdLogout()
	case "whoami":
		a.cmdWhoami()
	case "projects":
		a.cmdProjects()
	case "use":
		a.cmdUse(rest)
	case "langs":
		a.cmdLangs()
	case "lang":
		a.cmdLang(rest)
	case "keys":
		a.cmdKeys()
	case "filter":
		a.cmdFilter(rest)
	case "sort":
		a.cmdSort(rest)
	case "get":
		a.cmdGet(rest)
	case "add":
		a.cmdAdd(rest)
	case "rm":
		a.cmdRemove(rest)
	case "set":
		a.cmdSet(rest)
	case "bulk":
		a.cmdBulk(rest)
	case "analytics":
		a.cmdAnalytics()
	case "export":
		a.cmdExport(rest)
	default:
		fmt.Fprintf(a.out, "unknown command %q, try \"help\"\n", cmd)
	}
}

func (a *app) cmdHelp() {
	fmt.Fprint(a.out, `Commands:
  login -u USER -p PASS        sign in
  register -u USER -p PASS [-email E] [-name N]
  logout                       sign out
  whoami                       show the current account and token expiry
  projects                     list projects
  use NAME|ID|#N               select a project
  langs                        list the selected project's languages
  lang CODE                    select a language
  keys                         list translation keys (filters apply)
  filter [-search S] [-category C] [-lang L] [-missing] [-clear]
  sort FIELD [asc|desc]        order listings (key, category)
  get KEY_ID                   show one key with all translations
  add -key K [-category C] [-desc D] [LANG=VALUE ...]
  rm KEY_ID                    delete a key
  set KEY_ID LANG VALUE...     update one translation (optimistic)
  bulk KEY_ID:LANG=VALUE ...   update several translations at once
  analytics                    completion per language
  export LOCALE                flat key=value export
  exit
`)
}

func (a *app) cmdLogin(args []string) {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	u := fs.String("u", "", "username")
	p := fs.String("p", "", "password")
	if fs.Parse(args) != nil {
		return
	}
	if *u == "" || *p == "" {
		fmt.Fprintln(a.out, "need -u and -p")
		return
	}
	ctx, cancel := a.ctx()
	defer cancel()
	if err := a.sess.Login(ctx, model.Credentials{Username: *u, Password: *p}); err != nil {
		fmt.Fprintf(a.out, "error: %s\n", errs.FormatMessage(err.Error()))
		return
	}
	fmt.Fprintf(a.out, "signed in as %s\n", a.sess.Username())
}

func (a *app) cmdRegister(args []string) {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	u := fs.String("u", "", "username")
	p := fs.String("p", "", "password")
	email := fs.String("email", "", "email")
	name := fs.String("name", "", "full name")
	if fs.Parse(args) != nil {
		return
	}
	if *u == "" || *p == "" {
		fmt.Fprintln(a.out, "need -u and -p")
		return
	}
	ctx, cancel := a.ctx()
	defer cancel()
	reg := model.Registration{Username: *u, Password: *p, Email: *email, FullName: *name}
	if err := a.sess.Register(ctx, reg); err != nil {
		fmt.Fprintf(a.out, "error: %s\n", errs.FormatMessage(err.Error()))
		return
	}
	fmt.Fprintf(a.out, "registered and signed in as %s\n", a.sess.Username())
}

func (a *app) cmdLogout() {
	ctx, cancel := a.ctx()
	defer cancel()
	a.sess.Logout(ctx)
	a.domain.SetCurrentProject(nil)
	a.domain.SetCurrentLanguage(nil)
	fmt.Fprintln(a.out, "signed out")
}

func (a *app) cmdWhoami() {
	ctx, cancel := a.ctx()
	defer cancel()
	user, err := a.api.CurrentUser(ctx)
	if err != nil {
		fmt.Fprintf(a.out, "error: %s\n", errs.FormatMessage(err.Error()))
		return
	}
	fmt.Fprintf(a.out, "%s <%s> %s\n", user.Username, user.Email, user.FullName)

	// Best-effort token expiry from the JWT claims.
	var claims jwt.RegisteredClaims
	_, _ = jwt.ParseWithClaims(a.sess.State().Token, &claims,
		func(*jwt.Token) (any, error) { return nil, nil },
		jwt.WithoutClaimsValidation(),
	)
	if claims.ExpiresAt != nil {
		fmt.Fprintf(a.out, "token expires %s\n", claims.ExpiresAt.Time.UTC().Format(time.RFC3339))
	}
}

func (a *app) cmdProjects() {
	ctx, cancel := a.ctx()
	defer cancel()
	projects, err := a.svc.Projects(ctx)
	if err != nil {
		fmt.Fprintf(a.out, "error: %s\n", errs.FormatMessage(err.Error()))
		return
	}
	if len(projects) == 0 {
		fmt.Fprintln(a.out, "no projects")
		return
	}
	for i, p := range projects {
		langs := make([]string, 0, len(p.Languages))
		for _, l := range p.Languages {
			langs = append(langs, l.Code)
		}
		fmt.Fprintf(a.out, "#%d  %-24s %-36s [%s]\n", i+1, p.Name, p.ID, strings.Join(langs, ","))
	}
}

func (a *app) cmdUse(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "usage: use NAME|ID|#N")
		return
	}
	ctx, cancel := a.ctx()
	defer cancel()
	projects, err := a.svc.Projects(ctx)
	if err != nil {
		fmt.Fprintf(a.out, "error: %s\n", errs.FormatMessage(err.Error()))
		return
	}
	p, ok := pickProject(projects, args[0])
	if !ok {
		fmt.Fprintf(a.out, "no project matching %q\n", args[0])
		return
	}
	a.domain.SetCurrentProject(&p)
	fmt.Fprintf(a.out, "using project %s\n", p.Name)
}

func (a *app) currentProject() (model.Project, bool) {
	st := a.domain.State()
	if st.CurrentProject == nil {
		fmt.Fprintln(a.out, "no project selected, run \"use\" first")
		return model.Project{}, false
	}
	return *st.CurrentProject, true
}

func (a *app) cmdLangs() {
	p, ok := a.currentProject()
	if !ok {
		return
	}
	for _, l := range p.Languages {
		fmt.Fprintf(a.out, "%s %-4s %s\n", l.Flag, l.Code, l.Name)
	}
}

func (a *app) cmdLang(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "usage: lang CODE")
		return
	}
	p, ok := a.currentProject()
	if !ok {
		return
	}
	for _, l := range p.Languages {
		if l.Code == args[0] {
			lang := l
			a.domain.SetCurrentLanguage(&lang)
			fmt.Fprintf(a.out, "language %s (%s)\n", l.Code, l.Name)
			return
		}
	}
	fmt.Fprintf(a.out, "project has no language %q\n", args[0])
}

func (a *app) cmdKeys() {
	p, ok := a.currentProject()
	if !ok {
		return
	}
	st := a.domain.State()

	ctx, cancel := a.ctx()
	defer cancel()
	a.domain.SetLoading(true)
	page, err := a.svc.TranslationKeys(ctx, model.ListParams{ProjectID: p.ID, Filters: st.Filters})
	a.domain.SetLoading(false)
	if err != nil {
		fmt.Fprintf(a.out, "error: %s\n", errs.FormatMessage(err.Error()))
		return
	}

	keys := sortKeys(page.Keys, st.Sort)
	a.domain.SetTranslationKeys(keys)

	lang := ""
	if st.CurrentLanguage != nil {
		lang = st.CurrentLanguage.Code
	}
	for _, k := range keys {
		value := ""
		if lang != "" {
			if tr, ok := k.Translations[lang]; ok {
				value = tr.Value
			} else {
				value = "<missing>"
			}
		}
		fmt.Fprintf(a.out, "%-36s %-28s %-12s %s\n", k.ID, k.Key, k.Category, value)
	}
	fmt.Fprintf(a.out, "%d of %d keys (page %d)\n", len(keys), page.Total, page.Page)
}

func (a *app) cmdFilter(args []string) {
	fs := flag.NewFlagSet("filter", flag.ContinueOnError)
	search := fs.String("search", "", "substring of key or description")
	category := fs.String("category", "", "exact category")
	lang := fs.String("lang", "", "language code")
	missing := fs.Bool("missing", false, "only keys with missing translations")
	clear := fs.Bool("clear", false, "reset all filters")
	if fs.Parse(args) != nil {
		return
	}

	if *clear {
		empty := ""
		none := false
		a.domain.SetFilters(store.FilterPatch{
			Search:              &empty,
			Category:            &empty,
			LanguageCode:        &empty,
			MissingTranslations: &none,
		})
		fmt.Fprintln(a.out, "filters cleared")
		return
	}

	// Only flags given on the command line patch the filter set.
	var patch store.FilterPatch
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "search":
			patch.Search = search
		case "category":
			patch.Category = category
		case "lang":
			patch.LanguageCode = lang
		case "missing":
			patch.MissingTranslations = missing
		}
	})
	a.domain.SetFilters(patch)

	f := a.domain.State().Filters
	fmt.Fprintf(a.out, "filters: search=%q category=%q lang=%q missing=%v\n",
		f.Search, f.Category, f.LanguageCode, f.MissingTranslations)
}

func (a *app) cmdSort(args []string) {
	if len(args) < 1 || len(args) > 2 {
		fmt.Fprintln(a.out, "usage: sort FIELD [asc|desc]")
		return
	}
	cfg := store.SortConfig{Field: args[0], Direction: "asc"}
	if len(args) == 2 {
		if args[1] != "asc" && args[1] != "desc" {
			fmt.Fprintln(a.out, "direction must be asc or desc")
			return
		}
		cfg.Direction = args[1]
	}
	a.domain.SetSort(cfg)
	fmt.Fprintf(a.out, "sorting by %s %s\n", cfg.Field, cfg.Direction)
}

func (a *app) cmdGet(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "usage: get KEY_ID")
		return
	}
	ctx, cancel := a.ctx()
	defer cancel()
	key, err := a.svc.TranslationKey(ctx, args[0])
	if err != nil {
		fmt.Fprintf(a.out, "error: %s\n", errs.FormatMessage(err.Error()))
		return
	}
	fmt.Fprintf(a.out, "%s  (%s)\n", key.Key, key.Category)
	if key.Description != "" {
		fmt.Fprintf(a.out, "  %s\n", key.Description)
	}
	codes := make([]string, 0, len(key.Translations))
	for code := range key.Translations {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		tr := key.Translations[code]
		fmt.Fprintf(a.out, "  %-4s %-40q by %s at %s\n",
			code, tr.Value, tr.UpdatedBy, tr.UpdatedAt.UTC().Format(time.RFC3339))
	}
}

func (a *app) cmdAdd(args []string) {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	key := fs.String("key", "", "dotted key name")
	category := fs.String("category", "", "category")
	desc := fs.String("desc", "", "description")
	if fs.Parse(args) != nil {
		return
	}
	if *key == "" {
		fmt.Fprintln(a.out, "need -key")
		return
	}
	p, ok := a.currentProject()
	if !ok {
		return
	}

	initial := map[string]string{}
	for _, arg := range fs.Args() {
		code, value, ok := strings.Cut(arg, "=")
		if !ok {
			fmt.Fprintf(a.out, "bad translation %q, want LANG=VALUE\n", arg)
			return
		}
		initial[code] = value
	}

	ctx, cancel := a.ctx()
	defer cancel()
	created, err := a.svc.CreateTranslationKey(ctx, model.CreateTranslationKeyRequest{
		ProjectID:           p.ID,
		Key:                 *key,
		Category:            *category,
		Description:         *desc,
		InitialTranslations: initial,
	})
	if err != nil {
		return // banner printed by flushError
	}
	fmt.Fprintf(a.out, "created %s (%s)\n", created.Key, created.ID)
}

func (a *app) cmdRemove(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "usage: rm KEY_ID")
		return
	}
	ctx, cancel := a.ctx()
	defer cancel()
	res, err := a.svc.DeleteTranslationKey(ctx, args[0])
	if err != nil {
		return
	}
	fmt.Fprintf(a.out, "deleted %s\n", res.KeyID)
}

func (a *app) cmdSet(args []string) {
	if len(args) < 3 {
		fmt.Fprintln(a.out, "usage: set KEY_ID LANG VALUE...")
		return
	}
	keyID, lang := args[0], args[1]
	value := strings.Join(args[2:], " ")

	ctx, cancel := a.ctx()
	defer cancel()
	if err := a.svc.UpdateTranslation(ctx, keyID, lang, value); err != nil {
		return
	}
	fmt.Fprintf(a.out, "%s[%s] = %q\n", keyID, lang, value)
}

func (a *app) cmdBulk(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "usage: bulk KEY_ID:LANG=VALUE ...")
		return
	}
	updates := make([]model.TranslationUpdate, 0, len(args))
	for _, arg := range args {
		u, err := parseBulkArg(arg)
		if err != nil {
			fmt.Fprintln(a.out, err)
			return
		}
		updates = append(updates, u)
	}

	ctx, cancel := a.ctx()
	defer cancel()
	res, err := a.svc.BulkUpdateTranslations(ctx, updates)
	if err != nil {
		return
	}
	fmt.Fprintf(a.out, "updated %d of %d\n", res.UpdatedCount, res.TotalRequested)
}

func (a *app) cmdAnalytics() {
	p, ok := a.currentProject()
	if !ok {
		return
	}
	ctx, cancel := a.ctx()
	defer cancel()
	an, err := a.svc.Analytics(ctx, p.ID)
	if err != nil {
		fmt.Fprintf(a.out, "error: %s\n", errs.FormatMessage(err.Error()))
		return
	}
	fmt.Fprintf(a.out, "%d keys\n", an.TotalKeys)
	codes := make([]string, 0, len(an.CompletionByLanguage))
	for code := range an.CompletionByLanguage {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		c := an.CompletionByLanguage[code]
		fmt.Fprintf(a.out, "  %-4s %3d/%-3d %6.1f%%\n", code, c.Completed, c.Total, c.Percentage)
	}
}

func (a *app) cmdExport(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "usage: export LOCALE")
		return
	}
	p, ok := a.currentProject()
	if !ok {
		return
	}
	ctx, cancel := a.ctx()
	defer cancel()
	loc, err := a.svc.Localizations(ctx, p.ID, args[0])
	if err != nil {
		fmt.Fprintf(a.out, "error: %s\n", errs.FormatMessage(err.Error()))
		return
	}
	keys := make([]string, 0, len(loc.Values))
	for k := range loc.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(a.out, "%s=%s\n", k, loc.Values[k])
	}
}
