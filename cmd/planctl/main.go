package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/ukydev/repair-planner/internal/config"
	"github.com/ukydev/repair-planner/internal/db"
	"github.com/ukydev/repair-planner/internal/generator"
	"github.com/ukydev/repair-planner/internal/knowledge"
	"github.com/ukydev/repair-planner/internal/models"
	"github.com/ukydev/repair-planner/internal/planner"
)

type rootOptions struct {
	mongoURI string
	mongoDB  string
	json     bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "planctl",
		Short: "Repair planner operations CLI",
		Long: `planctl seeds the technician and part pools, inspects fault requirements,
lists work orders and runs a single repair planning pass from a fault file.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.mongoURI, "mongo-uri", envOr("MONGO_URI", "mongodb://localhost:27017"), "MongoDB connection string")
	root.PersistentFlags().StringVar(&opts.mongoDB, "db", envOr("MONGO_DB", "maintenance"), "MongoDB database name")
	root.PersistentFlags().BoolVar(&opts.json, "json", false, "output JSON")

	root.AddCommand(requirementsCmd(opts))
	root.AddCommand(seedCmd(opts))
	root.AddCommand(planCmd(opts))
	root.AddCommand(workOrdersCmd(opts))
	return root
}

func requirementsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "requirements [fault-type]",
		Short: "Show the skills and parts a fault type requires",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mapper := knowledge.Default()
			faultTypes := args
			if len(faultTypes) == 0 {
				faultTypes = mapper.FaultTypes()
			}

			type requirement struct {
				FaultType string   `json:"faultType"`
				Skills    []string `json:"skills"`
				Parts     []string `json:"parts"`
			}
			rows := make([]requirement, 0, len(faultTypes))
			for _, ft := range faultTypes {
				rows = append(rows, requirement{
					FaultType: ft,
					Skills:    mapper.RequiredSkills(ft),
					Parts:     mapper.RequiredParts(ft),
				})
			}

			out := cmd.OutOrStdout()
			if opts.json {
				return printJSON(out, rows)
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(out)
			tw.AppendHeader(table.Row{"Fault Type", "Skills", "Parts"})
			for _, r := range rows {
				tw.AppendRow(table.Row{r.FaultType, strings.Join(r.Skills, ", "), strings.Join(r.Parts, ", ")})
			}
			tw.Render()
			return nil
		},
	}
}

func seedCmd(opts *rootOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert technicians and parts from a YAML inventory file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("--file required")
			}
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()

			inv, err := LoadInventory(f)
			if err != nil {
				return err
			}
			return withStore(cmd.Context(), opts, func(ctx context.Context, store *db.Store) error {
				if err := Seed(ctx, inv, store.Technicians, store.Parts); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %d technicians and %d parts\n", len(inv.Technicians), len(inv.Parts))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "inventory YAML file")
	return cmd
}

func planCmd(opts *rootOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan and create a work order for the fault in a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("--file required")
			}
			fault, err := readFault(file)
			if err != nil {
				return err
			}

			cfg, err := config.Load(cmd.Context())
			if err != nil {
				return err
			}
			cfg.ConfigureLogging()
			gen, err := generator.NewClient(cfg.Generator.Endpoint, cfg.Generator.APIKey, cfg.Generator.Model, cfg.Generator.Timeout)
			if err != nil {
				return err
			}

			return withStore(cmd.Context(), opts, func(ctx context.Context, store *db.Store) error {
				p := planner.New(knowledge.Default(), store.Technicians, store.Parts, gen, store.WorkOrders)
				wo, err := p.PlanAndCreateWorkOrder(ctx, fault)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), wo)
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "fault JSON file")
	return cmd
}

func workOrdersCmd(opts *rootOptions) *cobra.Command {
	var filter db.WorkOrderFilter
	cmd := &cobra.Command{
		Use:   "workorders",
		Short: "List work orders, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), opts, func(ctx context.Context, store *db.Store) error {
				workOrders, err := store.WorkOrders.FindWorkOrders(ctx, filter)
				if err != nil {
					return err
				}
				if opts.json {
					return printJSON(cmd.OutOrStdout(), workOrders)
				}
				renderWorkOrders(cmd.OutOrStdout(), workOrders)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&filter.Status, "status", "", "status filter")
	cmd.Flags().StringVar(&filter.MachineID, "machine", "", "machine id filter")
	cmd.Flags().Int64Var(&filter.Limit, "limit", 20, "maximum number of work orders")
	return cmd
}

func renderWorkOrders(out io.Writer, workOrders []models.WorkOrder) {
	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.AppendHeader(table.Row{"Number", "Machine", "Priority", "Status", "Assigned To", "Title"})
	for _, wo := range workOrders {
		assignee := wo.AssignedTo
		if assignee == "" {
			assignee = "-"
		}
		tw.AppendRow(table.Row{wo.WorkOrderNumber, wo.MachineID, wo.Priority, wo.Status, assignee, wo.Title})
	}
	tw.Render()
}

func readFault(path string) (models.Fault, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Fault{}, err
	}
	var fault models.Fault
	if err := json.Unmarshal(data, &fault); err != nil {
		return models.Fault{}, fmt.Errorf("decode fault: %w", err)
	}
	if err := fault.Validate(); err != nil {
		return models.Fault{}, err
	}
	return fault, nil
}

func withStore(ctx context.Context, opts *rootOptions, fn func(context.Context, *db.Store) error) error {
	client, err := db.ConnectMongo(ctx, opts.mongoURI)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.WithError(err).Warn("Failed to disconnect from MongoDB")
		}
	}()
	return fn(ctx, db.NewStore(client, opts.mongoDB))
}

func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
