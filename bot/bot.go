package bot

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"modbot/audit"
	"modbot/configstore"
	"modbot/model"
	"modbot/scanner"

	"github.com/bwmarrin/discordgo"
	"github.com/jmoiron/sqlx"
)

type Bot struct {
	Session            *discordgo.Session
	DB                 *sqlx.DB
	GuildConfig        *configstore.Store
	CommandHandlers    map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate)
	RegisteredCommands []*discordgo.ApplicationCommand
	StartedAt          time.Time

	config     atomic.Value // *model.Config
	correlator atomic.Pointer[audit.Correlator]
	scheduler  *Scheduler

	ready     chan struct{}
	readyOnce sync.Once
	done      chan struct{}
}

func New(cfg *model.Config, db *sqlx.DB) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, err
	}
	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentGuildMembers |
		discordgo.IntentGuildModeration |
		discordgo.IntentGuildMessages |
		discordgo.IntentMessageContent

	guildCfg, err := configstore.New(db)
	if err != nil {
		return nil, err
	}

	b := &Bot{
		Session:     dg,
		DB:          db,
		GuildConfig: guildCfg,
		StartedAt:   time.Now(),
		ready:       make(chan struct{}),
		done:        make(chan struct{}),
	}
	b.config.Store(cfg)

	// The Ready payload carries the bot's own user; the correlator and the
	// reconciler both need it, and the reconciler must not start before the
	// session state is populated.
	dg.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		b.correlator.Store(audit.New(s, r.User.ID, cfg.AuditFetchTimeout))
		b.readyOnce.Do(func() {
			reconciler := scanner.New(db, s, guildCfg, r.User.ID, cfg.NewMemberGrace)
			b.scheduler = NewScheduler(reconciler, cfg.ReconcileInterval, b.done)
			b.scheduler.Start()
			close(b.ready)
		})
	})

	return b, nil
}

func (b *Bot) GetConfig() *model.Config {
	return b.config.Load().(*model.Config)
}

// Correlator returns the audit correlator, or nil before the session is
// ready. Gateway events only arrive after Ready, so handlers may assume it
// is set.
func (b *Bot) Correlator() *audit.Correlator {
	return b.correlator.Load()
}

// Ready closes once the gateway session reported readiness.
func (b *Bot) Ready() <-chan struct{} {
	return b.ready
}

func (b *Bot) Close() {
	log.Println("Gracefully shutting down.")
	close(b.done)
	if b.scheduler != nil {
		b.scheduler.Stop()
	}
	b.Session.Close()
}
