package bot

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"modbot/commands"
)

// Run opens the gateway connection, registers the slash commands, and blocks
// until the process is signalled.
func (b *Bot) Run() {
	if err := b.Session.Open(); err != nil {
		log.Fatalf("Error opening connection: %v", err)
	}

	cfg := b.GetConfig()
	log.Println("Registering application commands...")
	registered, err := b.Session.ApplicationCommandBulkOverwrite(cfg.AppID, "", commands.Commands())
	if err != nil {
		log.Printf("Cannot register commands: %v", err)
	} else {
		b.RegisteredCommands = registered
	}

	fmt.Println("Bot is now running. Press CTRL-C to exit.")
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc
}
