package main

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/iho/switchledger/internal/adapter/http/dto"
	"github.com/iho/switchledger/internal/domain"
	"github.com/iho/switchledger/internal/infrastructure/auth"
	"github.com/iho/switchledger/internal/infrastructure/postgres"
)

func accountCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Account operations",
	}

	cmd.AddCommand(accountCreateCmd(opts), accountGetCmd(opts), accountListCmd(opts), accountMovementsCmd(opts))
	return cmd
}

func accountCreateCmd(opts *options) *cobra.Command {
	var (
		req     dto.CreateAccountRequest
		initial string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if initial != "" {
				amount, err := decimal.NewFromString(initial)
				if err != nil {
					return fmt.Errorf("invalid --initial-balance %q: %w", initial, err)
				}
				req.InitialBalance = &amount
			}

			var account dto.AccountResponse
			if err := newAPIClient(opts).do(cmd.Context(), http.MethodPost, "/api/v1/accounts", req, &account); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), account)
		},
	}

	cmd.Flags().StringVar(&req.Code, "code", "", "Account number or BIC")
	cmd.Flags().StringVar(&req.HolderReference, "holder", "", "Holder (client) reference")
	cmd.Flags().StringVar(&initial, "initial-balance", "", "Opening balance")
	_ = cmd.MarkFlagRequired("code")
	_ = cmd.MarkFlagRequired("holder")

	return cmd
}

func accountGetCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id|code>",
		Short: "Show an account by numeric ID or code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var account dto.AccountResponse
			if err := newAPIClient(opts).do(cmd.Context(), http.MethodGet, accountPath(args[0]), nil, &account); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), account)
		},
	}
}

// accountPath routes numeric arguments to the ID endpoint and anything else
// to the code endpoint.
func accountPath(arg string) string {
	if _, err := strconv.ParseInt(arg, 10, 64); err == nil {
		return "/api/v1/accounts/" + arg
	}
	return "/api/v1/accounts/code/" + url.PathEscape(arg)
}

func accountListCmd(opts *options) *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.ListAccountsResponse
			path := fmt.Sprintf("/api/v1/accounts?limit=%d&offset=%d", limit, offset)
			if err := newAPIClient(opts).do(cmd.Context(), http.MethodGet, path, nil, &resp); err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCODE\tHOLDER\tBALANCE\tREVISION")
			for _, a := range resp.Accounts {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\n", a.ID, a.Code, truncate(a.HolderReference, 24), a.Balance, a.Revision)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Page size")
	cmd.Flags().IntVar(&offset, "offset", 0, "Page offset")

	return cmd
}

func accountMovementsCmd(opts *options) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "movements <id>",
		Short: "Show an account's movement history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.ListMovementsResponse
			path := fmt.Sprintf("/api/v1/accounts/%s/movements?limit=%d", url.PathEscape(args[0]), limit)
			if err := newAPIClient(opts).do(cmd.Context(), http.MethodGet, path, nil, &resp); err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "REV\tKIND\tAMOUNT\tBALANCE\tREFERENCE")
			for _, m := range resp.Movements {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", m.AccountRevision, m.Kind, m.Amount, m.BalanceAfter, truncate(m.Reference, 36))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 100, "Maximum movements to show")

	return cmd
}

func movementCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "movement",
		Short: "Apply debits and credits",
	}

	cmd.AddCommand(applyMovementCmd(opts, "debit"), applyMovementCmd(opts, "credit"))
	return cmd
}

func applyMovementCmd(opts *options, kind string) *cobra.Command {
	var reference string

	cmd := &cobra.Command{
		Use:   kind + " <account-id> <amount>",
		Short: "Apply a " + kind + " to an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[1], err)
			}

			req := dto.ApplyMovementRequest{Kind: kind, Amount: amount, Reference: reference}
			var resp dto.MovementResultResponse
			path := "/api/v1/accounts/" + url.PathEscape(args[0]) + "/movements"
			if err := newAPIClient(opts).do(cmd.Context(), http.MethodPost, path, req, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().StringVar(&reference, "reference", "", "Idempotency reference")

	return cmd
}

func ledgerCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Payment switch operations",
	}

	cmd.AddCommand(instructionCmd(opts))
	return cmd
}

func instructionCmd(opts *options) *cobra.Command {
	var (
		req    dto.SwitchInstructionRequest
		amount string
	)

	cmd := &cobra.Command{
		Use:   "instruction",
		Short: "Submit a switch instruction",
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("invalid --amount %q: %w", amount, err)
			}
			req.Amount = value

			if req.InstructionID == "" {
				req.InstructionID = uuid.NewString()
				fmt.Fprintf(cmd.ErrOrStderr(), "instruction_id: %s\n", req.InstructionID)
			}

			var resp dto.MovementResultResponse
			if err := newAPIClient(opts).do(cmd.Context(), http.MethodPost, "/api/v1/ledger/movements", req, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().StringVar(&req.AccountCode, "account-code", "", "Account number or BIC")
	cmd.Flags().StringVar(&req.Kind, "kind", "", "DEBIT or CREDIT")
	cmd.Flags().StringVar(&amount, "amount", "", "Amount")
	cmd.Flags().StringVar(&req.InstructionID, "instruction-id", "", "Instruction UUID (generated when empty)")
	_ = cmd.MarkFlagRequired("account-code")
	_ = cmd.MarkFlagRequired("kind")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

// migrationRunner matches postgres.RunMigrations and RunMigrationsDown.
type migrationRunner func(databaseURL, migrationsPath string, logger zerolog.Logger) error

var (
	migrateUp   migrationRunner = postgres.RunMigrations
	migrateDown migrationRunner = postgres.RunMigrationsDown
)

func migrateCmd() *cobra.Command {
	var databaseURL, path string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", envOr("DATABASE_URL", ""), "PostgreSQL URL")
	cmd.PersistentFlags().StringVar(&path, "path", envOr("MIGRATIONS_PATH", "migrations"), "Migrations directory")

	run := func(runner migrationRunner) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			if databaseURL == "" {
				return fmt.Errorf("--database-url or DATABASE_URL is required")
			}
			log := zerolog.New(cmd.ErrOrStderr()).With().Timestamp().Logger()
			return runner(databaseURL, path, log)
		}
	}

	cmd.AddCommand(
		&cobra.Command{Use: "up", Short: "Apply all pending migrations", RunE: run(migrateUp)},
		&cobra.Command{Use: "down", Short: "Roll back the last migration", RunE: run(migrateDown)},
	)

	return cmd
}

func tokenCmd() *cobra.Command {
	var secret, subject, role string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue API tokens",
	}

	issue := &cobra.Command{
		Use:   "issue",
		Short: "Sign a bearer token with the server's JWT secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return fmt.Errorf("--secret or JWT_SECRET is required")
			}
			manager, err := auth.NewJWTManager(secret, ttl)
			if err != nil {
				return err
			}
			token, err := manager.Generate(subject, domain.Role(role))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	issue.Flags().StringVar(&secret, "secret", envOr("JWT_SECRET", ""), "JWT signing secret")
	issue.Flags().StringVar(&subject, "subject", "", "Client name")
	issue.Flags().StringVar(&role, "role", string(domain.RoleOperator), "Role: admin, operator or viewer")
	issue.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime, 0 for no expiry")
	issue.MarkFlagRequired("subject")

	cmd.AddCommand(issue)
	return cmd
}
