package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/rm-hull/api-pgd-client/cmd"
	"github.com/rm-hull/api-pgd-client/internal"
)

func main() {
	var dbPath string
	var originUnit string
	var authorizerUnit int

	rootCmd := &cobra.Command{
		Use:          "pgd",
		Short:        "Client for the API PGD (Programa de Gestão e Desempenho)",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "data/pgd_outbox.db", "Path to the outbox database")

	unitFlags := func(c *cobra.Command) {
		c.Flags().StringVar(&originUnit, "origem-unidade", "", "Origin unit (defaults to PGD_ORIGEM_UNIDADE)")
		c.Flags().IntVar(&authorizerUnit, "cod-unidade-autorizadora", 0, "Authorizer unit (defaults to PGD_COD_UNIDADE_AUTORIZADORA)")
	}

	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Request a new access token",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmd.Token()
		},
	}

	userCmd := &cobra.Command{
		Use:   "user [email]",
		Short: "Fetch a user, or every user when no email is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.FetchUsers()
			}
			return cmd.FetchUser(args[0])
		},
	}

	var asCSV bool
	participantCmd := &cobra.Command{
		Use:   "participant <cod_unidade_lotacao> <matricula_siape>",
		Short: "Fetch a participant",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			lotacao, err := parseUnit(args[0])
			if err != nil {
				return err
			}
			return cmd.FetchParticipant(lotacao, args[1], originUnit, authorizerUnit, asCSV)
		},
	}
	unitFlags(participantCmd)
	participantCmd.Flags().BoolVar(&asCSV, "csv", false, "Print as CSV")

	deliveryPlanCmd := &cobra.Command{
		Use:   "delivery-plan <id_plano_entregas>",
		Short: "Fetch a delivery plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return cmd.FetchDeliveryPlan(args[0], originUnit, authorizerUnit)
		},
	}
	unitFlags(deliveryPlanCmd)

	workPlanCmd := &cobra.Command{
		Use:   "work-plan <id_plano_trabalho>",
		Short: "Fetch a work plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return cmd.FetchWorkPlan(args[0], originUnit, authorizerUnit)
		},
	}
	unitFlags(workPlanCmd)

	var kind string
	enqueueCmd := &cobra.Command{
		Use:   "enqueue <file>",
		Short: "Queue records from a CSV or JSON file for upload",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return cmd.Import(dbPath, args[0], kind)
		},
	}
	enqueueCmd.Flags().StringVar(&kind, "kind", "participant", "Record kind: participant, delivery_plan, work_plan or user")

	var batchSize int
	var ratePerSecond float64
	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Upload pending outbox records now",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmd.Sync(dbPath, batchSize, ratePerSecond)
		},
	}
	syncCmd.Flags().IntVar(&batchSize, "batch-size", 100, "Maximum records to upload")
	syncCmd.Flags().Float64Var(&ratePerSecond, "rate", 2, "Uploads per second (0 for unlimited)")

	var server cmd.ServerOptions
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the status server and the scheduled outbox dispatcher",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			server.DBPath = dbPath
			return cmd.ApiServer(server)
		},
	}
	serveCmd.Flags().IntVar(&server.Port, "port", 8080, "Port to run HTTP server on")
	serveCmd.Flags().BoolVar(&server.Debug, "debug", false, "Enable pprof endpoints")
	serveCmd.Flags().StringVar(&server.Schedule, "schedule", internal.CRON_SCHEDULE_DISPATCH, "Cron schedule for outbox dispatch")
	serveCmd.Flags().IntVar(&server.BatchSize, "batch-size", 100, "Maximum records per dispatch")
	serveCmd.Flags().Float64Var(&server.Rate, "rate", 2, "Uploads per second (0 for unlimited)")
	serveCmd.Flags().DurationVar(&server.CacheTTL, "cache-ttl", 5*time.Minute, "How long look-ups are cached")

	rootCmd.AddCommand(tokenCmd, userCmd, participantCmd, deliveryPlanCmd, workPlanCmd, enqueueCmd, syncCmd, serveCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}
}

func parseUnit(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errors.Newf("invalid unit code: %q", s)
	}
	return n, nil
}
