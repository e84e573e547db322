package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/kenng/qv-strapi/internal/graphql"
	"github.com/kenng/qv-strapi/internal/query"
	"github.com/kenng/qv-strapi/pkg/strapi"
)

type command struct {
	usage string
	run   func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"register":          {"Create an account and sign in", cmdRegister},
	"login":             {"Sign in with an identifier and password", cmdLogin},
	"logout":            {"Forget the stored session", cmdLogout},
	"forgot-password":   {"Send a password reset email", cmdForgotPassword},
	"reset-password":    {"Set a new password with a reset code", cmdResetPassword},
	"provider-url":      {"Print the URL that starts a provider sign-in", cmdProviderURL},
	"provider-callback": {"Complete a provider sign-in from its callback URL", cmdProviderCallback},
	"whoami":            {"Show the signed-in user", cmdWhoami},
	"find":              {"List entries: find <entity> [-q query]", cmdFind},
	"count":             {"Count entries: count <entity> [-q query]", cmdCount},
	"get":               {"Get an entry: get <entity> <id>", cmdGet},
	"create":            {"Create an entry: create <entity> <json|@file|->", cmdCreate},
	"update":            {"Update an entry: update <entity> <id> <json|@file|->", cmdUpdate},
	"delete":            {"Delete an entry: delete <entity> <id>", cmdDelete},
	"files":             {"List uploaded files [-q query]", cmdFiles},
	"file":              {"Get an uploaded file: file <id>", cmdFile},
	"search":            {"Search uploaded files: search <query>", cmdSearch},
	"upload":            {"Upload files: upload [-ref r -ref-id id -field f] <path>...", cmdUpload},
	"graphql":           {"Run a GraphQL document: graphql [-vars json] <query|@file|name>", cmdGraphQL},
	"request":           {"Send a raw request: request <method> <path> [json|@file|-]", cmdRequest},
	"check":             {"Check that entities are reachable: check [-output dir] <entity>...", cmdCheck},
}

// newFlagSet creates a subcommand flag set writing to the app's stderr
func (a *app) newFlagSet(name, usage string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.Usage = func() {
		fmt.Fprintf(a.stderr, "Usage: strapi %s\n", usage)
		fs.PrintDefaults()
	}
	return fs
}

func cmdRegister(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("register", "register -username name -email address [-password secret]")
	username := fs.String("username", "", "Username")
	email := fs.String("email", "", "Email address")
	password := fs.String("password", "", "Password, prompted for when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" || *email == "" {
		return errors.New("register needs -username and -email")
	}

	secret, err := a.secret(*password, "Password: ")
	if err != nil {
		return err
	}

	auth, err := a.client.Auth.Register(ctx, &strapi.RegisterParams{
		Username: *username,
		Email:    *email,
		Password: secret,
	})
	if err != nil {
		return err
	}
	return a.printJSON(auth.User)
}

func cmdLogin(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("login", "login -identifier name [-password secret]")
	identifier := fs.String("identifier", "", "Username or email address")
	password := fs.String("password", "", "Password, prompted for when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *identifier == "" {
		return errors.New("login needs -identifier")
	}

	secret, err := a.secret(*password, "Password: ")
	if err != nil {
		return err
	}

	auth, err := a.client.Auth.Login(ctx, &strapi.LoginParams{
		Identifier: *identifier,
		Password:   secret,
	})
	if err != nil {
		return err
	}

	a.logger.Info().Str("user", auth.User.ID()).Msg("Signed in")
	return a.printJSON(auth.User)
}

func cmdLogout(ctx context.Context, a *app, args []string) error {
	a.client.Auth.Logout()
	fmt.Fprintln(a.stderr, "Signed out")
	return nil
}

func cmdForgotPassword(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("forgot-password", "forgot-password -email address")
	email := fs.String("email", "", "Email address of the account")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return errors.New("forgot-password needs -email")
	}

	if err := a.client.Auth.ForgotPassword(ctx, &strapi.ForgotPasswordParams{Email: *email}); err != nil {
		return err
	}
	fmt.Fprintln(a.stderr, "Reset email requested")
	return nil
}

func cmdResetPassword(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("reset-password", "reset-password -code code [-password secret]")
	code := fs.String("code", "", "Code from the reset email")
	password := fs.String("password", "", "New password, prompted for when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *code == "" {
		return errors.New("reset-password needs -code")
	}

	secret, confirmation := *password, *password
	if secret == "" {
		var err error
		if secret, err = a.readPassword("New password: "); err != nil {
			return err
		}
		if confirmation, err = a.readPassword("Confirm password: "); err != nil {
			return err
		}
	}

	auth, err := a.client.Auth.ResetPassword(ctx, &strapi.ResetPasswordParams{
		Code:                 *code,
		Password:             secret,
		PasswordConfirmation: confirmation,
	})
	if err != nil {
		return err
	}
	return a.printJSON(auth.User)
}

func cmdProviderURL(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: provider-url <provider>")
	}
	_, err := fmt.Fprintln(a.stdout, a.client.Auth.GetProviderAuthenticationURL(args[0]))
	return err
}

func cmdProviderCallback(ctx context.Context, a *app, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: provider-callback <provider> <callback-url|query>")
	}

	params, err := strapi.ParseCallbackQuery(args[1])
	if err != nil {
		return err
	}

	if _, err := a.client.Auth.AuthenticateProvider(ctx, args[0], params); err != nil {
		return err
	}

	// the callback carries no user
	user := a.client.Auth.FetchUser(ctx)
	if user == nil {
		return errors.New("signed in but the user could not be loaded")
	}
	return a.printJSON(user)
}

func cmdWhoami(ctx context.Context, a *app, args []string) error {
	user := a.client.Auth.FetchUser(ctx)
	if user == nil {
		return errors.New("not signed in")
	}

	out := map[string]interface{}{"user": user}
	if claims, err := a.client.TokenClaims(); err == nil && !claims.ExpiresAt.IsZero() {
		out["expiresAt"] = claims.ExpiresAt
	}
	return a.printJSON(out)
}

func cmdFind(ctx context.Context, a *app, args []string) error {
	entity, params, err := a.entityQuery("find", args)
	if err != nil {
		return err
	}

	var result json.RawMessage
	if err := a.client.Entries.Find(ctx, entity, params, &result); err != nil {
		return err
	}
	return a.printJSON(result)
}

func cmdCount(ctx context.Context, a *app, args []string) error {
	entity, params, err := a.entityQuery("count", args)
	if err != nil {
		return err
	}

	var result json.RawMessage
	if err := a.client.Entries.Count(ctx, entity, params, &result); err != nil {
		return err
	}
	return a.printJSON(result)
}

func cmdGet(ctx context.Context, a *app, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: get <entity> <id>")
	}

	var result json.RawMessage
	if err := a.client.Entries.FindByID(ctx, args[0], args[1], &result); err != nil {
		return err
	}
	return a.printJSON(result)
}

func cmdCreate(ctx context.Context, a *app, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: create <entity> <json|@file|->")
	}

	data, err := a.readData(args[1])
	if err != nil {
		return err
	}

	var result json.RawMessage
	if err := a.client.Entries.Create(ctx, args[0], data, &result); err != nil {
		return err
	}
	return a.printJSON(result)
}

func cmdUpdate(ctx context.Context, a *app, args []string) error {
	if len(args) != 3 {
		return errors.New("usage: update <entity> <id> <json|@file|->")
	}

	data, err := a.readData(args[2])
	if err != nil {
		return err
	}

	var result json.RawMessage
	if err := a.client.Entries.Update(ctx, args[0], args[1], data, &result); err != nil {
		return err
	}
	return a.printJSON(result)
}

func cmdDelete(ctx context.Context, a *app, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: delete <entity> <id>")
	}

	var result json.RawMessage
	if err := a.client.Entries.Delete(ctx, args[0], args[1], &result); err != nil {
		return err
	}
	return a.printJSON(result)
}

func cmdFiles(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("files", "files [-q query]")
	q := fs.String("q", "", "Query string in bracket notation")
	if err := fs.Parse(args); err != nil {
		return err
	}

	params, err := query.Parse(*q)
	if err != nil {
		return errors.Wrap(err, "invalid query")
	}

	var result json.RawMessage
	if err := a.client.Files.Find(ctx, params, &result); err != nil {
		return err
	}
	return a.printJSON(result)
}

func cmdFile(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: file <id>")
	}

	var result json.RawMessage
	if err := a.client.Files.Get(ctx, args[0], &result); err != nil {
		return err
	}
	return a.printJSON(result)
}

func cmdSearch(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: search <query>")
	}

	var result json.RawMessage
	if err := a.client.Files.Search(ctx, args[0], &result); err != nil {
		return err
	}
	return a.printJSON(result)
}

func cmdUpload(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("upload", "upload [-ref model -ref-id id -field name] <path>...")
	ref := fs.String("ref", "", "Model the files are attached to")
	refID := fs.String("ref-id", "", "Id of the entry the files are attached to")
	field := fs.String("field", "", "Field of the entry the files are attached to")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("upload needs at least one file")
	}

	fields := map[string]string{}
	for k, v := range map[string]string{"ref": *ref, "refId": *refID, "field": *field} {
		if v != "" {
			fields[k] = v
		}
	}

	var files []strapi.UploadFile
	for _, path := range fs.Args() {
		f, err := os.Open(path)
		if err != nil {
			return errors.Wrap(err, "failed to open upload")
		}
		defer f.Close()

		files = append(files, strapi.UploadFile{
			Name:        filepath.Base(path),
			Reader:      f,
			ContentType: mime.TypeByExtension(filepath.Ext(path)),
		})
	}

	form, err := strapi.NewUploadForm(fields, files...)
	if err != nil {
		return err
	}

	var result json.RawMessage
	if err := a.client.Files.Upload(ctx, form.Reader(), form.Options(), &result); err != nil {
		return err
	}
	return a.printJSON(result)
}

func cmdGraphQL(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("graphql", "graphql [-vars json] [-operation name] <query|@file|name>")
	vars := fs.String("vars", "", "Variables as a JSON object")
	operation := fs.String("operation", "", "Operation to run when the document has several")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("graphql needs exactly one document")
	}

	doc, err := a.loadDocument(fs.Arg(0))
	if err != nil {
		return err
	}

	q := &strapi.GraphQLQuery{Query: doc, OperationName: *operation}
	if *vars != "" {
		if err := json.Unmarshal([]byte(*vars), &q.Variables); err != nil {
			return errors.Wrap(err, "invalid -vars")
		}
	}

	var result json.RawMessage
	if err := a.client.GraphQL(ctx, q, &result); err != nil {
		return err
	}
	return a.printJSON(result)
}

func cmdRequest(ctx context.Context, a *app, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return errors.New("usage: request <method> <path> [json|@file|-]")
	}

	opts := &strapi.RequestOptions{}
	path := args[1]
	if i := strings.IndexByte(path, '?'); i >= 0 {
		params, err := query.Parse(path[i+1:])
		if err != nil {
			return errors.Wrap(err, "invalid query")
		}
		opts.Params = params
		path = path[:i]
	}

	if len(args) == 3 {
		data, err := a.readData(args[2])
		if err != nil {
			return err
		}
		opts.Body = data
	}

	var result json.RawMessage
	if err := a.client.Request(ctx, args[0], path, opts, &result); err != nil {
		return err
	}
	return a.printJSON(result)
}

// secret returns value, prompting for it when empty
func (a *app) secret(value, prompt string) (string, error) {
	if value != "" {
		return value, nil
	}
	return a.readPassword(prompt)
}

// entityQuery parses "<entity> [-q query]" arguments
func (a *app) entityQuery(name string, args []string) (string, strapi.Params, error) {
	fs := a.newFlagSet(name, name+" <entity> [-q query]")
	q := fs.String("q", "", "Query string in bracket notation, e.g. filters[title][$eq]=x&sort=title")

	// allow the entity before the flags
	var entity string
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		entity, args = args[0], args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return "", nil, err
	}
	if entity == "" && fs.NArg() > 0 {
		entity = fs.Arg(0)
	}
	if entity == "" {
		return "", nil, fmt.Errorf("usage: %s <entity> [-q query]", name)
	}

	params, err := query.Parse(*q)
	if err != nil {
		return "", nil, errors.Wrap(err, "invalid query")
	}
	return entity, params, nil
}

// readData reads a JSON payload given inline, as @file or as - for stdin
func (a *app) readData(arg string) (json.RawMessage, error) {
	var data []byte
	switch {
	case arg == "-":
		b, err := io.ReadAll(a.stdin)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read stdin")
		}
		data = b
	case strings.HasPrefix(arg, "@"):
		b, err := os.ReadFile(arg[1:])
		if err != nil {
			return nil, errors.Wrap(err, "failed to read payload")
		}
		data = b
	default:
		data = []byte(arg)
	}

	if !json.Valid(data) {
		return nil, errors.New("payload is not valid JSON")
	}
	return json.RawMessage(data), nil
}

// loadDocument resolves a GraphQL document given inline, as @file, or by name
// from the queries directory
func (a *app) loadDocument(arg string) (string, error) {
	if strings.HasPrefix(arg, "@") {
		b, err := os.ReadFile(arg[1:])
		if err != nil {
			return "", errors.Wrap(err, "failed to read query")
		}
		return string(b), nil
	}

	if a.cfg.QueriesDir != "" && !strings.ContainsAny(arg, "{ ") {
		return graphql.NewLoader(os.DirFS(a.cfg.QueriesDir)).Load(arg)
	}
	return arg, nil
}
