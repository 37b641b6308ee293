// Package telegram runs interviews over a Telegram bot: one question per
// message, text replies or voice notes as answers, feedback delivered as the
// evaluations settle.
package telegram

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ai-interviewer/internal/auth"
	"ai-interviewer/internal/evaluation"
	"ai-interviewer/internal/interview"
	"ai-interviewer/internal/questions"
	"ai-interviewer/internal/record"
	"ai-interviewer/internal/session"
)

type Bot struct {
	api     *tgbotapi.BotAPI
	s       sender
	manager *session.Manager
	records record.Store
	pack    *questions.Pack
	allow   *auth.Service

	mu     sync.Mutex
	active map[int64]string // chat id -> interview record id
	drafts map[int64]string // chat id -> abandoned record id, resumable via /start
}

func New(botToken string, manager *session.Manager, records record.Store, pack *questions.Pack, allow *auth.Service) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	return &Bot{
		api:     api,
		s:       botAPISender{api: api},
		manager: manager,
		records: records,
		pack:    pack,
		allow:   allow,
		active:  make(map[int64]string),
		drafts:  make(map[int64]string),
	}, nil
}

func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message != nil {
				b.handleMessage(ctx, update.Message)
			}
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if b.allow != nil && msg.From != nil && !b.allow.IsAllowed(msg.From.ID) {
		b.sendMessage(msg.Chat.ID, "You are not on the candidate list for this bot.")
		return
	}
	switch {
	case msg.IsCommand():
		b.handleCommand(ctx, msg)
	case msg.Voice != nil:
		b.handleVoiceAnswer(ctx, msg)
	case strings.TrimSpace(msg.Text) != "":
		b.handleTextAnswer(ctx, msg)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.startInterview(ctx, msg.Chat.ID)
	case "status":
		b.sendStatus(msg.Chat.ID)
	case "cancel":
		b.cancelInterview(msg.Chat.ID)
	case "grant":
		b.changeAccess(msg, true)
	case "revoke":
		b.changeAccess(msg, false)
	default:
		b.sendMessage(msg.Chat.ID, "Commands: /start begins or resumes an interview, /status shows progress, /cancel abandons the session.")
	}
}

// changeAccess handles the admin-only /grant and /revoke commands taking a
// numeric Telegram user id.
func (b *Bot) changeAccess(msg *tgbotapi.Message, grant bool) {
	if b.allow == nil || msg.From == nil || !b.allow.IsAdmin(msg.From.ID) {
		b.sendMessage(msg.Chat.ID, "Only the admin can manage candidate access.")
		return
	}
	id, err := strconv.ParseInt(strings.TrimSpace(msg.CommandArguments()), 10, 64)
	if err != nil {
		b.sendMessage(msg.Chat.ID, "Usage: /grant <user id> or /revoke <user id>")
		return
	}

	if grant {
		err = b.allow.Grant(auth.Candidate{ID: id})
	} else {
		err = b.allow.Revoke(id)
	}
	if err != nil {
		log.Printf("allowlist update failed: %v", err)
		b.sendMessage(msg.Chat.ID, "Could not update the candidate list.")
		return
	}
	b.sendMessage(msg.Chat.ID, fmt.Sprintf("Candidate list updated for %d.", id))
}

func (b *Bot) startInterview(ctx context.Context, chatID int64) {
	b.mu.Lock()
	if _, busy := b.active[chatID]; busy {
		b.mu.Unlock()
		b.sendMessage(chatID, "An interview is already running. Answer the current question or /cancel first.")
		return
	}
	draftID := b.drafts[chatID]
	b.mu.Unlock()

	// the in-memory draft map dies with the process; the draft records do
	// not, so fall back to the chat's newest draft on disk
	if draftID == "" {
		draftID = b.findDraftRecord(ctx, chatID)
	}

	// an abandoned interview picks up where it left off, if its record and
	// progress are still around
	var machine *session.Machine
	if draftID != "" {
		m, err := b.manager.Resume(ctx, draftID)
		if err == nil {
			machine = m
		} else {
			log.Printf("could not resume draft %s, starting fresh: %v", draftID, err)
		}
	}

	if machine == nil {
		rec := &interview.Record{
			Questions:   b.pack.InterviewQuestions(),
			JobTitle:    b.pack.JobTitle,
			SessionType: "pack",
			ChatID:      chatID,
		}
		id, err := b.records.Create(ctx, rec)
		if err != nil {
			log.Printf("failed to create interview record: %v", err)
			b.sendMessage(chatID, "Sorry, could not start the interview.")
			return
		}
		machine, err = b.manager.Resume(ctx, id)
		if err != nil {
			log.Printf("failed to resume session %s: %v", id, err)
			b.sendMessage(chatID, "Sorry, could not start the interview.")
			return
		}
	}

	// a restored snapshot can already satisfy the completion predicate, in
	// which case the session archived during Resume
	if machine.State() == session.StateArchived {
		b.mu.Lock()
		delete(b.drafts, chatID)
		b.mu.Unlock()
		b.manager.Release(machine.ID())
		b.sendMessage(chatID, "That interview already finished and its results are saved. Send /start for a new one.")
		return
	}

	b.mu.Lock()
	b.active[chatID] = machine.ID()
	delete(b.drafts, chatID)
	b.mu.Unlock()

	// subscribe before handing control back so an early settlement is not
	// emitted ahead of the subscription
	go b.watchEvents(ctx, chatID, machine, machine.Subscribe())

	title := b.pack.JobTitle
	if title == "" {
		title = "Interview"
	}
	b.sendMessage(chatID, fmt.Sprintf("%s: %d questions. Reply with text or send a voice note.", title, machine.QuestionCount()))
	b.sendCurrentQuestion(chatID, machine)
}

// findDraftRecord returns the chat's newest draft interview on disk, or "".
func (b *Bot) findDraftRecord(ctx context.Context, chatID int64) string {
	recs, err := b.records.ListByStatus(ctx, interview.StatusDraft)
	if err != nil {
		log.Printf("failed to list draft interviews: %v", err)
		return ""
	}
	var newest *interview.Record
	for _, rec := range recs {
		if rec.ChatID != chatID {
			continue
		}
		if newest == nil || rec.CreatedAt.After(newest.CreatedAt) {
			newest = rec
		}
	}
	if newest == nil {
		return ""
	}
	return newest.ID
}

func (b *Bot) currentMachine(chatID int64) (*session.Machine, bool) {
	b.mu.Lock()
	id, ok := b.active[chatID]
	b.mu.Unlock()
	if !ok {
		return nil, false
	}
	return b.manager.Get(id)
}

func (b *Bot) handleTextAnswer(ctx context.Context, msg *tgbotapi.Message) {
	machine, ok := b.currentMachine(msg.Chat.ID)
	if !ok {
		b.sendMessage(msg.Chat.ID, "No interview is running. Send /start to begin.")
		return
	}
	if err := machine.SubmitText(ctx, msg.Text); err != nil {
		b.sendSubmitError(msg.Chat.ID, err)
		return
	}
	b.sendCurrentQuestion(msg.Chat.ID, machine)
}

func (b *Bot) handleVoiceAnswer(ctx context.Context, msg *tgbotapi.Message) {
	machine, ok := b.currentMachine(msg.Chat.ID)
	if !ok {
		b.sendMessage(msg.Chat.ID, "No interview is running. Send /start to begin.")
		return
	}

	audio, err := b.downloadVoice(msg.Voice.FileID)
	if err != nil {
		log.Printf("failed to download voice note: %v", err)
		b.sendMessage(msg.Chat.ID, "Could not download your voice note, please try again.")
		return
	}
	if err := machine.SubmitVoice(ctx, audio); err != nil {
		b.sendSubmitError(msg.Chat.ID, err)
		return
	}
	b.sendCurrentQuestion(msg.Chat.ID, machine)
}

func (b *Bot) downloadVoice(fileID string) (evaluation.Audio, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return evaluation.Audio{}, fmt.Errorf("failed to get file info: %w", err)
	}
	resp, err := http.Get(file.Link(b.api.Token))
	if err != nil {
		return evaluation.Audio{}, fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return evaluation.Audio{}, fmt.Errorf("failed to read file: %w", err)
	}
	// Telegram voice notes are OGG/Opus.
	return evaluation.Audio{Data: data, MIMEType: "audio/ogg"}, nil
}

// watchEvents relays settlements and the final summary into the chat.
func (b *Bot) watchEvents(ctx context.Context, chatID int64, machine *session.Machine, events <-chan session.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			if ev.Finished {
				b.finishInterview(chatID, machine)
				return
			}
			b.sendMessage(chatID, formatFeedback(ev.Slot, ev.Text, ev.Voice))
		}
	}
}

func (b *Bot) finishInterview(chatID int64, machine *session.Machine) {
	b.mu.Lock()
	delete(b.active, chatID)
	b.mu.Unlock()
	b.manager.Release(machine.ID())

	answers, _, _ := machine.Progress()
	b.sendMessage(chatID, fmt.Sprintf("Interview complete: %d answers evaluated and saved. Thanks!", len(answers)))
}

func (b *Bot) sendStatus(chatID int64) {
	machine, ok := b.currentMachine(chatID)
	if !ok {
		b.sendMessage(chatID, "No interview is running. Send /start to begin.")
		return
	}
	b.sendMessage(chatID, fmt.Sprintf("Question %d of %d answered, state: %s.",
		machine.CurrentIndex(), machine.QuestionCount(), machine.State()))
}

func (b *Bot) cancelInterview(chatID int64) {
	b.mu.Lock()
	id, ok := b.active[chatID]
	delete(b.active, chatID)
	if ok {
		b.drafts[chatID] = id
	}
	b.mu.Unlock()
	if !ok {
		b.sendMessage(chatID, "No interview is running.")
		return
	}
	b.manager.Release(id)
	b.sendMessage(chatID, "Interview abandoned. Progress is kept for 24 hours; /start resumes it.")
}

func (b *Bot) sendCurrentQuestion(chatID int64, machine *session.Machine) {
	q, ok := machine.CurrentQuestion()
	if !ok {
		b.sendMessage(chatID, "All questions answered. Waiting for the remaining feedback.")
		return
	}
	b.sendMessage(chatID, fmt.Sprintf("Question %d/%d:\n%s",
		machine.CurrentIndex()+1, machine.QuestionCount(), q.Text))
}

func (b *Bot) sendSubmitError(chatID int64, err error) {
	log.Printf("submission rejected: %v", err)
	b.sendMessage(chatID, "That answer could not be accepted: "+err.Error())
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.s.Send(msg); err != nil {
		log.Printf("failed to send message: %v", err)
	}
}
