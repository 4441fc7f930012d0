package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"privacyreport/backend/internal/api/handler"
	"privacyreport/backend/internal/models"
	"privacyreport/backend/internal/storage"
	"privacyreport/backend/internal/token"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	codec := token.NewCodec(os.Getenv("MAGIC_KEY"))
	storageSvc := storage.NewStorageService(db, nil, codec) // No redis needed for admin CLI

	if len(os.Args) < 2 {
		fmt.Println("Usage: admin <command> [args]")
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "list":
		status := models.StatusSubmitted
		if len(os.Args) > 2 {
			status = os.Args[2]
		}
		if err := listReports(storageSvc, status); err != nil {
			log.Fatalf("Error listing reports: %v", err)
		}
	case "set-pending":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin set-pending <report_id>")
			os.Exit(1)
		}
		reportID := os.Args[2]
		if err := storageSvc.SetReportStatus(reportID, models.StatusPending); err != nil {
			log.Fatalf("Error marking report pending: %v", err)
		}
		fmt.Printf("Report %s is now pending.\n", reportID)
	case "close":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin close <report_id>")
			os.Exit(1)
		}
		reportID := os.Args[2]
		if err := storageSvc.SetReportStatus(reportID, models.StatusClosed); err != nil {
			log.Fatalf("Error closing report: %v", err)
		}
		fmt.Printf("Report %s has been closed.\n", reportID)
	case "issue-token":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin issue-token <moderator_id>")
			os.Exit(1)
		}
		jwt, err := handler.GenerateModeratorJWT(os.Getenv("JWT_SECRET"), os.Args[2])
		if err != nil {
			log.Fatalf("Error issuing moderator token: %v", err)
		}
		fmt.Println(jwt)
	default:
		fmt.Println("Unknown command")
		os.Exit(1)
	}
}

func listReports(s storage.Storage, status string) error {
	reports, err := s.ReportsByStatus(status)
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		fmt.Printf("No %s reports.\n", status)
		return nil
	}
	for _, report := range reports {
		fmt.Printf("%s\t%s\treported=%s\treporting=%s\tts=%s\n",
			report.ID, report.Status, report.ReportedUserID, report.ReportingUserID,
			strconv.FormatInt(report.ReportingTimestamp, 10))
	}
	return nil
}
