package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"collabcode/backend/internal/config"
	"collabcode/backend/internal/models"
	"collabcode/backend/internal/storage"
)

// Small ops CLI for room maintenance. Talks straight to the database through
// the same storage service as the server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}
	cfg := config.Load()

	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	storageSvc := storage.NewStorageService(db, nil) // no Redis needed for admin CLI

	if len(os.Args) < 2 {
		usage()
	}

	switch os.Args[1] {
	case "deactivate-room":
		if len(os.Args) < 3 {
			fmt.Println("Usage: admin deactivate-room <room_id>")
			os.Exit(1)
		}
		if err := storageSvc.DeactivateRoom(os.Args[2]); err != nil {
			log.Fatalf("deactivate failed: %v", err)
		}
		fmt.Printf("Room %s deactivated.\n", os.Args[2])

	case "stats":
		if len(os.Args) < 3 {
			fmt.Println("Usage: admin stats <room_id>")
			os.Exit(1)
		}
		room, err := storageSvc.GetRoomByID(os.Args[2])
		if err != nil {
			log.Fatalf("lookup failed: %v", err)
		}
		fmt.Printf("Room:          %s (%s)\n", room.Name, room.RoomID)
		fmt.Printf("Owner:         %s\n", room.OwnerID)
		fmt.Printf("Active:        %v  Public: %v\n", room.IsActive, room.IsPublic)
		fmt.Printf("Participants:  %d total, %d active\n",
			room.Stats.TotalParticipants, len(room.ActiveParticipants()))
		fmt.Printf("Messages:      %d\n", room.Stats.TotalMessages)
		fmt.Printf("Code changes:  %d\n", room.Stats.TotalCodeChanges)
		fmt.Printf("Last activity: %s\n", room.LastActivity.Format(time.RFC3339))

	case "prune-inactive":
		if len(os.Args) < 3 {
			fmt.Println("Usage: admin prune-inactive <days>")
			os.Exit(1)
		}
		days, err := strconv.Atoi(os.Args[2])
		if err != nil || days < 1 {
			fmt.Println("Invalid day count. Please provide a positive integer.")
			os.Exit(1)
		}
		cutoff := time.Now().AddDate(0, 0, -days)
		res := db.Model(&models.Room{}).
			Where("is_active = ? AND last_activity < ?", true, cutoff).
			Update("is_active", false)
		if res.Error != nil {
			log.Fatalf("prune failed: %v", res.Error)
		}
		fmt.Printf("Deactivated %d rooms idle since %s.\n", res.RowsAffected, cutoff.Format(time.RFC3339))

	default:
		usage()
	}
}

func usage() {
	fmt.Println("Usage: admin <deactivate-room|stats|prune-inactive> [args]")
	os.Exit(1)
}
