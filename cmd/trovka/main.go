package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"trovka.org/internal/api"
	"trovka.org/internal/audit"
	"trovka.org/internal/config"
	"trovka.org/internal/draft"
	"trovka.org/internal/ids"
	"trovka.org/internal/lookup"
	"trovka.org/internal/notify"
	"trovka.org/internal/obs"
	"trovka.org/internal/session"
	"trovka.org/internal/tokenstore"
)

var version = "0.1.0"

func main() {
	obs.Init()
	obs.InitBuildInfo(version)

	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// app wires the client stack together for one command invocation.
type app struct {
	cfg      config.Config
	client   *api.Client
	tokens   *tokenstore.SQL
	session  *session.Store
	lookups  *lookup.Cache
	notifier notify.Notifier
}

func newApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	client, err := api.New(cfg.BaseURL,
		api.WithTimeout(cfg.Timeout()),
		api.WithRateLimit(cfg.RatePerSecond, cfg.RateBurst),
	)
	if err != nil {
		return nil, err
	}
	tokens, err := tokenstore.Open(cfg.TokenStorePath)
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:      cfg,
		client:   client,
		tokens:   tokens,
		session:  session.New(client, tokens),
		lookups:  lookup.NewCache(client),
		notifier: notify.Writer{Out: os.Stderr},
	}, nil
}

func (a *app) Close() {
	_ = a.tokens.Close()
}

// restore loads a persisted token so authenticated commands work across runs.
func (a *app) restore(ctx context.Context) error {
	return a.session.Restore(ctx)
}

func newRootCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "trovka",
		Short:         "Client for the TrovKa local-services marketplace",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: "+config.DefaultPath()+")")

	cmd.AddCommand(newRegisterCommand(&configPath))
	cmd.AddCommand(newVerifyCommand(&configPath))
	cmd.AddCommand(newLoginCommand(&configPath))
	cmd.AddCommand(newLogoutCommand(&configPath))
	cmd.AddCommand(newProfileCommand(&configPath))
	cmd.AddCommand(newServiceCommand(&configPath))
	cmd.AddCommand(newLookupsCommand(&configPath))
	cmd.AddCommand(newVersionCommand())
	return cmd
}

func withApp(configPath *string, run func(ctx context.Context, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ctx = audit.WithRequestID(ctx, ids.Request())
		a, err := newApp(*configPath)
		if err != nil {
			return err
		}
		defer a.Close()
		return run(ctx, a)
	}
}

func newRegisterCommand(configPath *string) *cobra.Command {
	var req api.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account; an OTP is mailed to the address",
		RunE: withApp(configPath, func(ctx context.Context, a *app) error {
			if req.ConfirmPassword == "" {
				req.ConfirmPassword = req.Password
			}
			user, err := a.session.Register(ctx, req)
			if err != nil {
				return describeReject(err)
			}
			fmt.Printf("registered %s <%s>; check your inbox for the verification code\n", user.Username, user.Email)
			return nil
		}),
	}
	cmd.Flags().StringVar(&req.Username, "username", "", "Account username")
	cmd.Flags().StringVar(&req.Email, "email", "", "Account email address")
	cmd.Flags().StringVar(&req.Role, "role", "consumer", "Account role (consumer or provider)")
	cmd.Flags().StringVar(&req.Password, "password", "", "Account password")
	cmd.Flags().StringVar(&req.ConfirmPassword, "confirm-password", "", "Password confirmation (defaults to --password)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newVerifyCommand(configPath *string) *cobra.Command {
	var email, otp string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Confirm the emailed one-time code",
		RunE: withApp(configPath, func(ctx context.Context, a *app) error {
			if _, err := a.session.VerifyEmail(ctx, email, otp); err != nil {
				return describeReject(err)
			}
			fmt.Println("email verified, you can log in now")
			return nil
		}),
	}
	cmd.Flags().StringVar(&email, "email", "", "Registered email address")
	cmd.Flags().StringVar(&otp, "otp", "", "One-time code from the verification mail")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("otp")
	return cmd
}

func newLoginCommand(configPath *string) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate and persist the access token",
		RunE: withApp(configPath, func(ctx context.Context, a *app) error {
			state, err := a.session.Login(ctx, email, password)
			if err != nil {
				return describeReject(err)
			}
			fmt.Printf("logged in as %s (%s)\n", state.User.Username, state.Role)
			return nil
		}),
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email address")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the session and the persisted token",
		RunE: withApp(configPath, func(ctx context.Context, a *app) error {
			if err := a.session.Logout(ctx); err != nil {
				return err
			}
			fmt.Println("logged out")
			return nil
		}),
	}
}

func newProfileCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or update the authenticated profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Fetch and print the profile",
		RunE: withApp(configPath, func(ctx context.Context, a *app) error {
			if err := a.restore(ctx); err != nil {
				return err
			}
			user, err := a.session.FetchProfile(ctx)
			if err != nil {
				return describeReject(err)
			}
			fmt.Printf("id:       %d\nusername: %s\nemail:    %s\n", user.ID, user.Username, user.Email)
			return nil
		}),
	}

	var update api.User
	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Replace profile fields",
		RunE: withApp(configPath, func(ctx context.Context, a *app) error {
			if err := a.restore(ctx); err != nil {
				return err
			}
			user, err := a.session.UpdateProfile(ctx, update)
			if err != nil {
				return describeReject(err)
			}
			fmt.Printf("profile updated: %s <%s>\n", user.Username, user.Email)
			return nil
		}),
	}
	updateCmd.Flags().StringVar(&update.Username, "username", "", "New username")
	updateCmd.Flags().StringVar(&update.Email, "email", "", "New email address")
	updateCmd.Flags().StringVar(&update.Avatar, "avatar", "", "New avatar URL")

	cmd.AddCommand(show, updateCmd)
	return cmd
}

func newServiceCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Service listing operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newServiceAddCommand(configPath))
	cmd.AddCommand(newServiceListCommand(configPath))
	return cmd
}

func newServiceAddCommand(configPath *string) *cobra.Command {
	var (
		d         draft.Draft
		imagePath string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Submit a new service listing",
		RunE: withApp(configPath, func(ctx context.Context, a *app) error {
			if err := a.restore(ctx); err != nil {
				return err
			}
			token := a.session.State().AccessToken
			if token == "" {
				return session.ErrNotAuthenticated
			}
			if err := a.lookups.Fetch(ctx); err != nil {
				return fmt.Errorf("fetch reference data: %w", err)
			}

			form := draft.New()
			id := form.ID
			*form = d
			form.ID = id
			form.Normalize(a.lookups.SubCategories(form.Category))
			if imagePath != "" {
				f, err := os.Open(imagePath)
				if err != nil {
					return err
				}
				err = form.AttachImage(imagePath, f)
				f.Close()
				if err != nil {
					return err
				}
				defer func() {
					if img := form.Image(); img != nil {
						_ = img.Release()
					}
				}()
			}

			flow := draft.NewWorkflow(a.client, a.notifier)
			svc, err := flow.Submit(ctx, token, form)
			if err != nil {
				var vErr *draft.ValidationError
				if errors.As(err, &vErr) {
					return formatFieldErrors(vErr)
				}
				return describeReject(err)
			}
			fmt.Printf("service %d created (%s, %s)\n", svc.ID, svc.Name, svc.WorkingDays)
			return nil
		}),
	}

	cmd.Flags().StringVar(&d.Name, "name", "", "Service name")
	cmd.Flags().StringVar(&d.Price, "price", "", "Service price")
	cmd.Flags().StringVar(&d.Description, "description", "", "Service description")
	cmd.Flags().Int64Var(&d.Location, "location", 0, "Location id (see lookups)")
	cmd.Flags().Int64Var(&d.Category, "category", 0, "Category type id (see lookups)")
	cmd.Flags().Int64Var(&d.SubCategory, "sub-category", 0, "Sub-category id (must belong to --category)")
	cmd.Flags().StringVar(&d.StartDay, "start-day", "", "First working day (Monday-first ordering)")
	cmd.Flags().StringVar(&d.EndDay, "end-day", "", "Last working day (strictly after --start-day)")
	cmd.Flags().StringVar(&d.StartTime, "start-time", "", "Opening time, e.g. 09:00")
	cmd.Flags().StringVar(&d.EndTime, "end-time", "", "Closing time, e.g. 17:00")
	cmd.Flags().StringVar(&imagePath, "image", "", "Optional image file to upload")
	return cmd
}

func newServiceListCommand(configPath *string) *cobra.Command {
	var filter api.ServiceFilter

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Browse service listings",
		RunE: withApp(configPath, func(ctx context.Context, a *app) error {
			services, err := a.client.Services(ctx, filter)
			if err != nil {
				return describeReject(err)
			}
			if len(services) == 0 {
				fmt.Println("no services found")
				return nil
			}
			for _, svc := range services {
				fmt.Printf("%6d  %-30s %8s  %s %s-%s\n",
					svc.ID, svc.Name, svc.Price, svc.WorkingDays, svc.StartTime, svc.EndTime)
			}
			return nil
		}),
	}
	cmd.Flags().Int64Var(&filter.Category, "category", 0, "Filter by category id")
	cmd.Flags().StringVar(&filter.Search, "search", "", "Free-text search")
	return cmd
}

func newLookupsCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "lookups",
		Short: "Print reference data used to fill the service form",
		RunE: withApp(configPath, func(ctx context.Context, a *app) error {
			if err := a.lookups.Fetch(ctx); err != nil {
				return err
			}
			if types, ok := a.lookups.CategoryTypes(); ok {
				fmt.Println("category types:")
				for _, ct := range types {
					fmt.Printf("  %4d  %s\n", ct.ID, ct.Name)
					for _, c := range a.lookups.SubCategories(ct.ID) {
						fmt.Printf("          %4d  %s\n", c.ID, c.CategoryName)
					}
				}
			}
			if locations, ok := a.lookups.Locations(); ok {
				fmt.Println("locations:")
				for _, loc := range locations {
					fmt.Printf("  %4d  %s, %s, %s, %s, %s\n",
						loc.ID, loc.Province, loc.District, loc.Commune, loc.Village, loc.PostalCode)
				}
			}
			return nil
		}),
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the client version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("trovka %s\n", version)
		},
	}
}

// describeReject keeps backend error bodies readable on the terminal.
func describeReject(err error) error {
	if apiErr, ok := api.AsError(err); ok {
		return fmt.Errorf("backend rejected the request (status %d): %s", apiErr.Status, string(apiErr.Body))
	}
	return err
}

func formatFieldErrors(vErr *draft.ValidationError) error {
	fields := make([]string, 0, len(vErr.Fields))
	for field := range vErr.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		fmt.Fprintf(os.Stderr, "  %s: %s\n", field, vErr.Fields[field])
	}
	return errors.New("the form has missing fields")
}
