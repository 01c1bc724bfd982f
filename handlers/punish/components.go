package punish

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"punish-bot/bot"
	engine "punish-bot/punish"
	"punish-bot/utils"

	"github.com/bwmarrin/discordgo"
)

// Component custom-ID prefixes. The suffix after the colon is the original
// command interaction ID, which keys the pending cache.
const (
	componentReasonSelect  = "punish_reasons"
	componentConfirmButton = "punish_confirm"
	componentCancelButton  = "punish_cancel"
)

// pendingPunishment carries a /punish invocation between the menu response
// and the confirm click.
type pendingPunishment struct {
	UserID   string
	Username string
	IP       string
	Avoid    bool
	Selected []string
}

var (
	// pendingCache stores in-flight punishments, keyed by the invoking
	// interaction ID embedded in each component's custom ID.
	pendingCache = make(map[string]*pendingPunishment)
	cacheLock    sync.Mutex
)

func storePending(key string, p *pendingPunishment) {
	cacheLock.Lock()
	pendingCache[key] = p
	cacheLock.Unlock()
}

func getPending(key string) *pendingPunishment {
	cacheLock.Lock()
	defer cacheLock.Unlock()
	return pendingCache[key]
}

func deletePending(key string) {
	cacheLock.Lock()
	delete(pendingCache, key)
	cacheLock.Unlock()
}

// HandlePunishComponent routes select-menu and button interactions for the
// punish flow.
func HandlePunishComponent(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot, customID string) {
	name, key, ok := strings.Cut(customID, ":")
	if !ok {
		return
	}

	switch name {
	case componentReasonSelect:
		handleReasonSelection(s, i, key)
	case componentConfirmButton:
		handleConfirm(s, i, b, key)
	case componentCancelButton:
		deletePending(key)
		utils.UpdateComponentMessage(s, i, "Punishment cancelled. Nothing was recorded.")
	}
}

func handleReasonSelection(s *discordgo.Session, i *discordgo.InteractionCreate, key string) {
	cacheLock.Lock()
	if p, ok := pendingCache[key]; ok {
		p.Selected = i.MessageComponentData().Values
	}
	cacheLock.Unlock()

	// The moderator still has to press Confirm; just acknowledge.
	utils.AcknowledgeComponent(s, i)
}

func handleConfirm(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot, key string) {
	pending := getPending(key)
	if pending == nil {
		utils.UpdateComponentMessage(s, i, "❌ This punishment menu has expired. Run /punish again.")
		return
	}

	moderator := "unknown"
	moderatorID := ""
	if i.Member != nil && i.Member.User != nil {
		moderator = i.Member.User.Username
		moderatorID = i.Member.User.ID
	}

	var result *engine.Result
	var err error
	if pending.Avoid {
		result, err = b.Engine.ApplyReused(pending.UserID, pending.Username, pending.IP, moderatorID, pending.Selected)
	} else {
		result, err = b.Engine.ApplyFresh(pending.UserID, pending.Username, pending.IP, moderatorID, pending.Selected)
	}
	if err != nil {
		utils.UpdateComponentMessage(s, i, punishErrorMessage(err))
		return
	}
	deletePending(key)

	// The punishment is authoritative once written; notification failures
	// are logged and reported, never rolled back.
	threadID, threadErr := postThreadSummary(s, b, pending, result, moderator)
	if threadErr != nil {
		log.Printf("Failed to post punishment summary for user %s: %v", pending.Username, threadErr)
	}
	if fwdErr := forwardEnforcement(s, b, pending, result); fwdErr != nil {
		log.Printf("Failed to forward enforcement command for user %s: %v", pending.Username, fwdErr)
	}

	utils.UpdateComponentMessage(s, i, buildAckContent(b, pending, result, threadID, threadErr))
}

// punishErrorMessage maps engine errors to short moderator-facing text.
// Every path here aborts before any write.
func punishErrorMessage(err error) string {
	var tmplErr *engine.TemplateNotFoundError
	var priorErr *engine.NoPriorPunishmentError
	switch {
	case errors.Is(err, engine.ErrEmptyReasonSet):
		return "❌ Select at least one reason before confirming. Nothing was recorded."
	case errors.As(err, &tmplErr):
		return fmt.Sprintf("❌ No catalog template for **%s** at stage %d. Nothing was recorded.", tmplErr.Reason, tmplErr.Stage)
	case errors.As(err, &priorErr):
		return fmt.Sprintf("❌ No prior punishment for **%s** to re-apply. Nothing was recorded.", priorErr.Reason)
	default:
		log.Printf("Punishment failed: %v", err)
		return "❌ Punishment failed. Nothing was recorded."
	}
}
