// Command register installs the bot's application commands. Run once per
// deployment; registration is a bulk overwrite, so re-running is safe.
package main

import (
	"log"
	"os"

	"privacyreport/backend/internal/api/handler"
	"privacyreport/backend/internal/config"
	"privacyreport/backend/internal/discord"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}

	appID := os.Getenv("APP_ID")
	botToken := os.Getenv("DISCORD_TOKEN")
	if appID == "" || botToken == "" {
		log.Fatal("APP_ID and DISCORD_TOKEN must be set")
	}

	commands := []discord.ApplicationCommand{
		{
			Name:         handler.CommandPrivacyReporting,
			Type:         discord.CommandMessage,
			DMPermission: false,
		},
		{
			Name:        handler.CommandMyReports,
			Description: "List your latest privacy reports",
			Type:        discord.CommandChatInput,
			Options: []discord.ApplicationCommandOption{
				{
					Type:        discord.CommandOptionInteger,
					Name:        "number",
					Description: "How many reports to list",
					MinValue:    1,
					MaxValue:    config.MyReportsMax,
				},
			},
		},
	}

	client := discord.NewClient(appID, botToken)
	if err := client.InstallGlobalCommands(commands); err != nil {
		log.Fatalf("Failed to install commands: %v", err)
	}
	log.Printf("Installed %d application commands.", len(commands))
}
