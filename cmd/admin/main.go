package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"cybershield/backend/internal/complaint"
	"cybershield/backend/internal/config"
	"cybershield/backend/internal/events"
	"cybershield/backend/internal/models"
	"cybershield/backend/internal/storage"
)

const usage = `Usage: admin <command> [args]

Commands:
  list                     list every complaint
  show <tracking_code>     print one complaint
  status <tracking_code> <status>
                           advance a complaint (received, under_review,
                           under_investigation, resolved, closed)`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := storage.OpenPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	publisher := openEvents(ctx, cfg)
	defer publisher.Close()

	// Only status changes and lookups run here; nothing is classified or mailed.
	svc := complaint.NewService(storage.NewStorageService(db, cfg.TrackingCodePrefix), nil, nil, nil, nil, publisher)

	switch os.Args[1] {
	case "list":
		if err := listComplaints(ctx, svc); err != nil {
			log.Fatalf("Error listing complaints: %v", err)
		}
	case "show":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin show <tracking_code>")
			os.Exit(1)
		}
		c, err := svc.Track(ctx, os.Args[2])
		if errors.Is(err, storage.ErrNotFound) {
			fmt.Println("Complaint not found")
			os.Exit(1)
		}
		if err != nil {
			log.Fatalf("Error loading complaint: %v", err)
		}
		printComplaint(c)
	case "status":
		if len(os.Args) != 4 {
			fmt.Println("Usage: admin status <tracking_code> <status>")
			os.Exit(1)
		}
		c, err := svc.AdvanceStatus(ctx, os.Args[2], models.Status(os.Args[3]))
		if err != nil {
			log.Fatalf("Error updating status: %v", err)
		}
		fmt.Printf("Complaint %s is now %s.\n", c.TrackingCode, c.Status.Label())
	default:
		fmt.Println("Unknown command")
		fmt.Println(usage)
		os.Exit(1)
	}
}

// openEvents connects the configured broker so status changes reach the
// running server. A broker that cannot be reached is skipped.
func openEvents(ctx context.Context, cfg *config.Config) events.Publisher {
	var (
		p   events.Publisher
		err error
	)
	switch cfg.EventsDriver {
	case "redis":
		p, err = events.NewRedisPublisher(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	case "mqtt":
		p, err = events.NewMQTTPublisher(events.MQTTConfig{
			BrokerURL:   cfg.MQTTBrokerURL,
			ClientID:    cfg.MQTTClientID + "-admin",
			Username:    cfg.MQTTUsername,
			Password:    cfg.MQTTPassword,
			TopicPrefix: cfg.MQTTTopicPrefix,
		})
	default:
		return events.Nop{}
	}
	if err != nil {
		log.Printf("WARNING: %s events unavailable, status changes will not be announced: %v", cfg.EventsDriver, err)
		return events.Nop{}
	}
	return p
}

func listComplaints(ctx context.Context, svc *complaint.Service) error {
	all, err := svc.List(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tSTATUS\tTYPE\tLANGUAGE\tFILED")
	for _, c := range all {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			c.TrackingCode, c.Status, c.IncidentType, c.Language, c.CreatedAt.Format(time.DateOnly))
	}
	return w.Flush()
}

func printComplaint(c *models.Complaint) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Tracking code:\t%s\n", c.TrackingCode)
	fmt.Fprintf(w, "Status:\t%s\n", c.Status.Label())
	fmt.Fprintf(w, "Incident type:\t%s\n", c.IncidentType.Label())
	fmt.Fprintf(w, "Language:\t%s\n", c.Language)
	fmt.Fprintf(w, "Name:\t%s\n", c.FullName)
	fmt.Fprintf(w, "Email:\t%s\n", c.Email)
	fmt.Fprintf(w, "Phone:\t%s\n", c.Phone)
	fmt.Fprintf(w, "Incident date:\t%s\n", c.IncidentDate)
	fmt.Fprintf(w, "Financial loss:\t%s\n", c.FinancialLoss)
	fmt.Fprintf(w, "Filed:\t%s\n", c.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Last updated:\t%s\n", c.LastUpdated.Format(time.RFC3339))
	fmt.Fprintf(w, "Description:\t%s\n", c.IncidentDescription)
	w.Flush()
}
