package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"planwise/internal/agent"
	"planwise/internal/config"
	"planwise/internal/db"
	"planwise/internal/llm"
	"planwise/internal/migrate"
	"planwise/internal/repo"
	"planwise/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "planwise",
	Short: "Planwise CLI",
	Long: `Planwise turns natural-language project-management commands into projects,
sprints and tasks. Point it at a workspace, configure a generative backend
key, and either serve the HTTP API or drive the agent straight from the
command line with 'planwise ask'.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("PLANWISE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func registerCommands() {
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(askCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(projectCmd())
	rootCmd.AddCommand(taskCmd())
	rootCmd.AddCommand(sprintCmd())
}

func loadConfig() (*config.Config, error) {
	return config.Load(viper.GetString("workspace"))
}

func newBackend(cfg *config.Config) llm.Client {
	return llm.NewOpenRouterClient(llm.Config{
		APIKey:  cfg.APIKey(),
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Timeout: cfg.RequestTimeout(),
	})
}

func withRepo(ctx context.Context, fn func(context.Context, repo.Repo) error) error {
	conn, err := db.Open(db.Config{Workspace: viper.GetString("workspace")})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	return fn(ctx, repo.Repo{DB: conn})
}

func withAgent(ctx context.Context, fn func(context.Context, *agent.Agent, repo.Repo) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer log.Sync()
	return withRepo(ctx, func(ctx context.Context, r repo.Repo) error {
		return fn(ctx, agent.New(newBackend(cfg), r, log), r)
	})
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}
			if basePath == "" {
				basePath = cfg.Server.BasePath
			}
			log, err := zap.NewProduction()
			if err != nil {
				return err
			}
			defer log.Sync()
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				ag := agent.New(newBackend(cfg), r, log)
				handler, err := server.New(server.Config{
					Agent:    ag,
					Store:    r,
					BasePath: basePath,
					Auth:     server.AuthConfig{JWTSecret: cfg.Auth.JWTSecret},
					Logger:   log,
				})
				if err != nil {
					return err
				}
				srv := &http.Server{Addr: addr, Handler: handler}
				go func() {
					<-ctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					srv.Shutdown(shutdownCtx)
				}()
				log.Info("serving Planwise API",
					zap.String("addr", addr),
					zap.String("base_path", basePath),
					zap.Bool("backend_enabled", ag.Status().Enabled))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to config)")
	cmd.Flags().StringVar(&basePath, "base-path", "", "API base path (defaults to config)")
	return cmd
}

func askCmd() *cobra.Command {
	var projectID string
	cmd := &cobra.Command{
		Use:   "ask <prompt>",
		Short: "Run a natural-language command against the agent",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := strings.Join(args, " ")
			return withAgent(cmd.Context(), func(ctx context.Context, ag *agent.Agent, _ repo.Repo) error {
				req := agent.Request{Prompt: prompt}
				if projectID != "" {
					req.Context = &agent.RequestContext{ProjectID: projectID}
				}
				resp, err := ag.Execute(ctx, req)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(resp)
				}
				fmt.Printf("[%s] %s\n", resp.Action, resp.Message)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "project id for context")
	return cmd
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show agent status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAgent(cmd.Context(), func(ctx context.Context, ag *agent.Agent, _ repo.Repo) error {
				return printJSON(ag.Status())
			})
		},
	}
}

func projectCmd() *cobra.Command {
	prj := &cobra.Command{Use: "project", Short: "Manage projects"}
	prj.AddCommand(projectListCmd())
	return prj
}

func projectListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListProjects(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Key", "Name", "Status", "Category"})
				for _, p := range items {
					tw.AppendRow(table.Row{p.ID, p.Key, p.Name, p.Status, p.Category})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func taskCmd() *cobra.Command {
	tc := &cobra.Command{Use: "task", Short: "Manage tasks"}
	tc.AddCommand(taskListCmd())
	return tc
}

func taskListCmd() *cobra.Command {
	var projectID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks in a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if projectID == "" {
				return fmt.Errorf("--project required")
			}
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListTasksByProject(ctx, projectID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Content", "Status", "Priority", "Assignee"})
				for _, t := range items {
					assignee := ""
					if t.Assignee != nil {
						assignee = *t.Assignee
					}
					tw.AppendRow(table.Row{t.ID, t.Content, t.Status, t.Priority, assignee})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "project id")
	return cmd
}

func sprintCmd() *cobra.Command {
	sc := &cobra.Command{Use: "sprint", Short: "Manage sprints"}
	sc.AddCommand(sprintListCmd())
	return sc
}

func sprintListCmd() *cobra.Command {
	var projectID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sprints in a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if projectID == "" {
				return fmt.Errorf("--project required")
			}
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListSprintsByProject(ctx, projectID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Goal", "Status"})
				for _, s := range items {
					tw.AppendRow(table.Row{s.ID, s.Name, s.Goal, s.Status})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "project id")
	return cmd
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
