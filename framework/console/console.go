// Package console is the command line front end of an application:
// serving it and inspecting its routes, container and annotations.
package console

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/km-arc/go-spf/framework/app"
	"github.com/km-arc/go-spf/framework/reflection"
)

// Options controls how commands build the application.
type Options struct {
	Name      string
	Providers []app.ServiceProvider
	AppOpts   []app.Option
}

type state struct {
	opts     Options
	base     string
	envFiles []string
	noColor  bool
}

func (s *state) application() (*app.Application, error) {
	opts := append([]app.Option{app.WithBase(s.base)}, s.opts.AppOpts...)
	if len(s.envFiles) > 0 {
		opts = append(opts, app.WithEnvFiles(s.envFiles...))
	}
	a, err := app.New(opts...)
	if err != nil {
		return nil, err
	}
	for _, p := range s.opts.Providers {
		if err := a.Register(p); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// NewCommand returns the root command with every subcommand attached.
func NewCommand(opts Options) *cobra.Command {
	if opts.Name == "" {
		opts.Name = "spf"
	}
	s := &state{opts: opts}

	root := &cobra.Command{
		Use:           opts.Name,
		Short:         "Run and inspect an SPF application",
		Version:       app.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if s.noColor {
				color.NoColor = true
			}
		},
	}
	root.PersistentFlags().StringVarP(&s.base, "base", "b", ".", "application root holding configs/ and views/")
	root.PersistentFlags().StringSliceVar(&s.envFiles, "env-file", nil, ".env files loaded before config.yaml (default <base>/.env)")
	root.PersistentFlags().BoolVar(&s.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		serveCmd(s),
		routesCmd(s),
		resolveCmd(s),
		annotationsCmd(s),
		typesCmd(s),
	)
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute(opts Options) {
	cmd := NewCommand(opts)
	if err := cmd.Execute(); err != nil {
		color.New(color.FgRed, color.Bold).Fprint(os.Stderr, "error: ")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// ── serve ─────────────────────────────────────────────────────────────────────

func serveCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the application over HTTP until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.application()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.Run(ctx)
		},
	}
}

// ── routes ────────────────────────────────────────────────────────────────────

func routesCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List the configured routes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.application()
			if err != nil {
				return err
			}
			router, err := a.Router()
			if err != nil {
				return err
			}

			routes := router.Routes()
			if len(routes) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no routes")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			header := color.New(color.Bold)
			header.Fprintln(w, "METHOD\tPATTERN\tCONTROLLER\tACTION")
			for _, rt := range routes {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					color.GreenString(strings.Join(rt.Methods, "|")),
					rt.Pattern,
					color.CyanString(rt.Controller),
					rt.Action,
				)
			}
			return w.Flush()
		},
	}
}

// ── resolve ───────────────────────────────────────────────────────────────────

func resolveCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <key>",
		Short: "Resolve a key through the container and describe the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.application()
			if err != nil {
				return err
			}
			v, err := a.Get(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s %T\n", color.GreenString("✓"), args[0], v)
			for _, key := range a.Keys() {
				if a.Resolved(key) {
					fmt.Fprintf(out, "  %s\n", key)
				}
			}
			return nil
		},
	}
}

// ── annotations ───────────────────────────────────────────────────────────────

func annotationsCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "annotations <type> [kind] [member]",
		Short: "Print the annotations of a registered type or one of its members",
		Long: `Print the annotations of a registered type or one of its members.
kind is one of: type (default), constructor, method, property.`,
		Args: cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.application()
			if err != nil {
				return err
			}
			kind := reflection.KindType
			if len(args) > 1 && args[1] != "type" {
				kind = reflection.MemberKind(args[1])
			}
			member := ""
			if len(args) > 2 {
				member = args[2]
			}

			set, err := a.Engine().Get(args[0], kind, member)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if set.Empty() {
				fmt.Fprintln(out, "no annotations")
				return nil
			}
			printSet(out, set.Names(), set.Get)
			return nil
		},
	}
}

func printSet(out io.Writer, names []string, get func(string) [][]string) {
	for _, name := range names {
		for _, params := range get(name) {
			fmt.Fprintf(out, "%s %s\n", color.YellowString("@"+name), strings.Join(params, " "))
		}
	}
}

// ── types ─────────────────────────────────────────────────────────────────────

func typesCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "types [prefix]",
		Short: "List the types registered in the reflection pool",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.application()
			if err != nil {
				return err
			}
			names := a.Pool().Names()
			if len(args) == 1 {
				names = filter(names, args[0])
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func filter(names []string, prefix string) []string {
	out := names[:0]
	for _, n := range names {
		if strings.HasPrefix(n, prefix) {
			out = append(out, n)
		}
	}
	return out
}
