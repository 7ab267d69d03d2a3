package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/transparencity/backend/internal/api/routes"
	"github.com/transparencity/backend/internal/config"
	"github.com/transparencity/backend/internal/database"
	"github.com/transparencity/backend/internal/models"
	"github.com/transparencity/backend/internal/services"
)

const demoPassword = "changeme123"

type demoProposal struct {
	title       string
	description string
	category    string
	votes       []string
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	db, err := database.Connect(cfg.DatabasePath)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}
	fmt.Println("✓ Database migrated successfully")

	svc := routes.NewServices(db, cfg, nil)
	ctx := context.Background()

	// The first account registered becomes a verified admin.
	adminUser := ensureUser(svc, "admin@transparencity.local", "City Clerk")
	admin := services.Actor{UserID: adminUser.ID, Role: adminUser.Role}

	var citizens []services.Actor
	for i, name := range []string{"Ada Lovelace", "Grace Hopper", "Alan Turing"} {
		u := ensureUser(svc, fmt.Sprintf("citizen%d@transparencity.local", i+1), name)
		if !u.Verified {
			if _, err := svc.Users.Verify(ctx, admin, u.ID); err != nil {
				log.Fatalf("Failed to verify %s: %v", u.Email, err)
			}
			fmt.Printf("✓ Verified citizen: %s\n", u.Email)
		}
		citizens = append(citizens, services.Actor{UserID: u.ID, Role: u.Role})
	}

	existing, err := svc.Proposals.List(services.ProposalFilter{})
	if err != nil {
		log.Fatal("Failed to list proposals:", err)
	}
	if len(existing) > 0 {
		fmt.Printf("  %d proposals already exist, skipping\n", len(existing))
		return
	}

	proposals := []demoProposal{
		{
			title:       "Protected bike lanes on Main Street",
			description: "Separate cyclists from traffic between the station and the market square.",
			category:    "transportation",
			votes:       []string{"yes", "yes", "no"},
		},
		{
			title:       "Extend library opening hours",
			description: "Open the central library until 22:00 on weekdays during exam season.",
			category:    "education",
			votes:       []string{"yes", "abstain"},
		},
		{
			title:       "Community garden in Riverside Park",
			description: "Convert the unused lawn behind the pavilion into raised beds for residents.",
			category:    "environment",
		},
	}

	for i, dp := range proposals {
		author := citizens[i%len(citizens)]
		p, err := svc.Proposals.Create(ctx, author, services.CreateProposalInput{
			Title:       dp.title,
			Description: dp.description,
			Category:    dp.category,
		})
		if err != nil {
			log.Printf("Failed to seed proposal %q: %v", dp.title, err)
			continue
		}
		fmt.Printf("✓ Created proposal #%d: %s (%s)\n", p.ID, p.Title, p.Status)

		for j, choice := range dp.votes {
			if _, err := svc.Votes.CastVote(ctx, citizens[j], p.ID, choice, ""); err != nil {
				log.Printf("Failed to cast vote on #%d: %v", p.ID, err)
			}
		}
		if len(dp.votes) > 0 {
			fmt.Printf("  cast %d votes\n", len(dp.votes))
		}
	}

	if _, err := svc.Comments.Create(ctx, citizens[1], 1, "Please include the bridge crossing.", nil); err != nil {
		log.Printf("Failed to seed comment: %v", err)
	}
	if _, err := svc.Responses.Create(ctx, admin, 1, "The transport committee will review this on the next agenda.", ""); err != nil {
		log.Printf("Failed to seed official response: %v", err)
	}

	report, err := svc.Audit.VerifyChain()
	if err != nil {
		log.Fatal("Failed to verify audit chain:", err)
	}
	fmt.Printf("✓ Audit chain valid=%t (%d records)\n", report.Valid, report.Checked)
	fmt.Printf("\nDemo accounts use the password %q. Voting closes after %s.\n", demoPassword, cfg.VotingPeriod.Round(time.Minute))
}

func ensureUser(svc *routes.Services, email, name string) *models.User {
	u, err := svc.Auth.Register(email, demoPassword, name)
	switch {
	case err == nil:
		fmt.Printf("✓ Created user: %s (%s)\n", email, u.Role)
		return u
	case errors.Is(err, services.ErrEmailTaken):
		existing, err := svc.Users.GetByEmail(email)
		if err != nil {
			log.Fatalf("Failed to load %s: %v", email, err)
		}
		fmt.Printf("  User already exists: %s\n", email)
		return existing
	default:
		log.Fatalf("Failed to seed user %s: %v", email, err)
		return nil
	}
}
