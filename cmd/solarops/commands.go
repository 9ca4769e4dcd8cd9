package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kuhu42/solar-back-sub001/internal/core"
	"github.com/kuhu42/solar-back-sub001/internal/preview"
	"github.com/kuhu42/solar-back-sub001/internal/seed"
	"github.com/kuhu42/solar-back-sub001/pkg/domain"
)

func seedCmd(opts *rootOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load fixture data (the bundled demo set by default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fx, err := seed.Demo()
			if file != "" {
				fx, err = seed.LoadFile(file)
			}
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app) error {
				sum, err := seed.Apply(ctx, a.svc, fx)
				if err != nil {
					return err
				}
				if opts.asJSON {
					return printJSON(cmd.OutOrStdout(), sum)
				}
				tw := newTable(cmd.OutOrStdout(), "Users", "Inventory", "Projects", "Complaints", "Tasks", "Invoices")
				tw.AppendRow([]any{sum.Users, sum.Inventory, sum.Projects, sum.Complaints, sum.Tasks, sum.Invoices})
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML fixture file")
	return cmd
}

func projectsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "projects", Short: "Query projects"}
	var customer, agent string
	list := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(_ context.Context, a *app) error {
				projects := a.svc.ListProjects()
				switch {
				case customer != "":
					projects = a.svc.ProjectsForCustomer(customer)
				case agent != "":
					projects = a.svc.ProjectsForAgent(agent)
				}
				return printProjects(cmd.OutOrStdout(), opts.asJSON, projects)
			})
		},
	}
	list.Flags().StringVar(&customer, "customer", "", "only projects of this customer")
	list.Flags().StringVar(&agent, "agent", "", "only projects handled by this agent")
	cmd.AddCommand(list)
	return cmd
}

func projectCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "project", Short: "Change a project"}

	cmd.AddCommand(&cobra.Command{
		Use:   "stage <project-id> <stage>",
		Short: "Move a project to a pipeline stage",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app) error {
				p, res, err := dispatchNow(ctx, a, func(d *core.Dispatcher) *core.Ticket[domain.Project] {
					return d.UpdatePipelineStage(args[0], domain.PipelineStage(args[1]))
				})
				if err != nil {
					return err
				}
				printWarnings(cmd.ErrOrStderr(), res)
				return printProject(cmd.OutOrStdout(), opts.asJSON, p)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status <project-id> <status>",
		Short: "Set a project's operational status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app) error {
				p, res, err := dispatchNow(ctx, a, func(d *core.Dispatcher) *core.Ticket[domain.Project] {
					return d.UpdateProjectStatus(args[0], domain.ProjectStatus(args[1]))
				})
				if err != nil {
					return err
				}
				printWarnings(cmd.ErrOrStderr(), res)
				return printProject(cmd.OutOrStdout(), opts.asJSON, p)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "approve <project-id>",
		Short: "Approve a project's installation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app) error {
				p, _, err := dispatchNow(ctx, a, func(d *core.Dispatcher) *core.Ticket[domain.Project] {
					return d.ApproveInstallation(args[0])
				})
				if err != nil {
					return err
				}
				return printProject(cmd.OutOrStdout(), opts.asJSON, p)
			})
		},
	})

	var agent string
	assign := &cobra.Command{
		Use:   "assign <project-id> <installer-id>",
		Short: "Create the installation task for a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app) error {
				out, res, err := dispatchNow(ctx, a, func(d *core.Dispatcher) *core.Ticket[core.Assignment] {
					return d.AssignInstaller(args[0], args[1], agent)
				})
				if err != nil {
					return err
				}
				printWarnings(cmd.ErrOrStderr(), res)
				if opts.asJSON {
					return printJSON(cmd.OutOrStdout(), out)
				}
				return printTask(cmd.OutOrStdout(), false, out.Task)
			})
		},
	}
	assign.Flags().StringVar(&agent, "agent", "", "assigning agent (defaults to the project's agent)")
	cmd.AddCommand(assign)
	return cmd
}

func complaintCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "complaint", Short: "Handle complaints"}
	cmd.AddCommand(&cobra.Command{
		Use:   "escalate <complaint-id> <installer-id>",
		Short: "Turn a complaint into a maintenance task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app) error {
				task, res, err := dispatchNow(ctx, a, func(d *core.Dispatcher) *core.Ticket[domain.Task] {
					return d.EscalateComplaint(args[0], args[1])
				})
				if err != nil {
					return err
				}
				printWarnings(cmd.ErrOrStderr(), res)
				return printTask(cmd.OutOrStdout(), opts.asJSON, task)
			})
		},
	})
	return cmd
}

func attendanceCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "attendance", Short: "Record attendance"}
	for _, kind := range []domain.AttendanceKind{domain.CheckIn, domain.CheckOut} {
		var location string
		name := "check-in"
		short := "Open today's attendance record"
		if kind == domain.CheckOut {
			name = "check-out"
			short = "Close today's attendance record"
		}
		sub := &cobra.Command{
			Use:   name + " <user-id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.withApp(cmd, func(ctx context.Context, a *app) error {
					record, _, err := dispatchNow(ctx, a, func(d *core.Dispatcher) *core.Ticket[domain.Attendance] {
						if kind == domain.CheckOut {
							return d.CheckOut(args[0], location)
						}
						return d.CheckIn(args[0], location)
					})
					if err != nil {
						return err
					}
					return printAttendance(cmd.OutOrStdout(), opts.asJSON, record)
				})
			},
		}
		sub.Flags().StringVar(&location, "location", "", "where the user is working")
		cmd.AddCommand(sub)
	}
	return cmd
}

func quoteCmd(opts *rootOptions) *cobra.Command {
	var (
		amount float64
		phone  string
		send   bool
	)
	cmd := &cobra.Command{
		Use:   "quote <project-or-complaint-id>",
		Short: "Preview a quotation, or send and archive it with --send",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app) error {
				if send {
					delivery, _, err := dispatchNow(ctx, a, func(d *core.Dispatcher) *core.Ticket[core.QuoteDelivery] {
						return d.SendQuote(args[0], amount, phone)
					})
					if err != nil {
						return err
					}
					if opts.asJSON {
						return printJSON(cmd.OutOrStdout(), delivery)
					}
					fmt.Fprint(cmd.OutOrStdout(), delivery.Document.Body)
					fmt.Fprintf(cmd.OutOrStdout(), "\nWhatsApp: %s\nArchived: %s\n", delivery.Message.Link, delivery.Archived.Key)
					return nil
				}
				quote, err := a.svc.QuoteRequest(ctx, args[0], amount)
				if err != nil {
					return err
				}
				doc, err := preview.QuotationDocument(quote)
				if err != nil {
					return err
				}
				if opts.asJSON {
					return printJSON(cmd.OutOrStdout(), map[string]any{"quote": quote, "document": doc})
				}
				fmt.Fprint(cmd.OutOrStdout(), doc.Body)
				return nil
			})
		},
	}
	cmd.Flags().Float64Var(&amount, "amount", 0, "quoted amount (projects default to their value)")
	cmd.Flags().StringVar(&phone, "phone", "", "WhatsApp number overriding the customer's phone")
	cmd.Flags().BoolVar(&send, "send", false, "render the WhatsApp draft and archive the document")
	return cmd
}
