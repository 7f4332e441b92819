package ui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bz888/tsdr/internal/i18n"
	"github.com/bz888/tsdr/internal/logger"
	"github.com/bz888/tsdr/internal/preference"
	"github.com/bz888/tsdr/internal/reveal"
	"github.com/bz888/tsdr/pkg/errors"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
)

// Generator sends the user's text to the server and returns the expanded result.
type Generator interface {
	Generate(ctx context.Context, text, language string) (string, error)
}

type Options struct {
	Generator Generator
	Store     preference.Store
	// Language is the starting UI language, normally from preference.LoadLanguage.
	Language string
	// Console is shown next to the main view when set.
	Console *tview.TextView
	Pace    time.Duration
}

type Shell struct {
	app       *tview.Application
	generator Generator
	store     preference.Store
	reveal    *reveal.Controller
	logger    *zap.Logger

	// draw runs f on the event loop and redraws.
	draw func(f func())

	ctx    context.Context
	cancel context.CancelFunc
	wg     conc.WaitGroup

	mu       sync.Mutex
	language string
	loading  bool

	header  *tview.TextView
	input   *tview.TextArea
	output  *tview.TextView
	footer  *tview.TextView
	console *tview.TextView
	layout  *tview.Flex
}

// NewDebugConsole returns the text view that receives log lines in dev mode.
func NewDebugConsole(app *tview.Application) *tview.TextView {
	console := tview.NewTextView().
		SetChangedFunc(func() {
			app.Draw()
		}).
		SetDynamicColors(false).
		SetWordWrap(true)

	console.SetTitle("Debugger").SetBorder(true)
	console.ScrollToEnd()
	return console
}

func New(app *tview.Application, opts Options) *Shell {
	ctx, cancel := context.WithCancel(context.Background())

	lang := opts.Language
	if !i18n.Supported(lang) {
		lang = i18n.Portuguese
	}
	pace := opts.Pace
	if pace == 0 {
		pace = reveal.DefaultPace
	}

	s := &Shell{
		app:       app,
		generator: opts.Generator,
		store:     opts.Store,
		logger:    logger.NewLogger("views"),
		ctx:       ctx,
		cancel:    cancel,
		language:  lang,
		console:   opts.Console,
	}
	s.draw = func(f func()) {
		app.QueueUpdateDraw(f)
	}
	s.reveal = reveal.New(s.showOutput, reveal.WithPace(pace))

	s.header = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	s.output = tview.NewTextView().
		SetDynamicColors(false).
		SetWordWrap(true).
		SetScrollable(true)
	s.output.SetBorder(true)
	s.input = tview.NewTextArea()
	s.input.SetBorder(true)
	s.footer = tview.NewTextView().
		SetTextAlign(tview.AlignCenter)

	s.input.SetInputCapture(s.handleInputKey)
	s.layout = s.buildLayout()
	s.applyLanguage()
	return s
}

func (s *Shell) buildLayout() *tview.Flex {
	main := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(s.header, 2, 0, false).
		AddItem(s.input, 5, 0, true).
		AddItem(s.output, 0, 1, false).
		AddItem(s.footer, 1, 0, false)

	layout := tview.NewFlex().AddItem(main, 0, 2, true)
	if s.console != nil {
		layout.AddItem(s.console, 0, 1, false)
	}
	layout.SetInputCapture(s.handleGlobalKey)
	return layout
}

// Run blocks until the user quits or ctx is done.
func (s *Shell) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		s.app.QueueUpdate(s.quit)
	})
	defer stop()

	s.logger.Info("UI started", zap.String("language", s.Language()))
	err := s.app.SetRoot(s.layout, true).SetFocus(s.input).Run()
	s.cancel()
	s.waitWithTimeout(2 * time.Second)
	return err
}

func (s *Shell) Language() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.language
}

func (s *Shell) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *Shell) handleGlobalKey(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyCtrlL:
		s.ToggleLanguage()
		return nil
	case tcell.KeyEscape, tcell.KeyCtrlC:
		s.quit()
		return nil
	}
	return event
}

func (s *Shell) handleInputKey(event *tcell.EventKey) *tcell.EventKey {
	if event.Key() != tcell.KeyEnter {
		return event
	}
	// Alt+Enter inserts a newline instead of submitting.
	if event.Modifiers()&tcell.ModAlt != 0 {
		return tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone)
	}
	s.Submit(s.input.GetText())
	return nil
}

// Submit starts a generation for text. Blank input is ignored, as is any
// submission while a request is still in flight. Must be called on the event loop.
func (s *Shell) Submit(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}

	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return
	}
	s.loading = true
	lang := s.language
	s.mu.Unlock()

	s.input.SetDisabled(true)
	s.applyLanguage()

	s.wg.Go(func() {
		s.generate(text, lang)
	})
}

func (s *Shell) generate(text, lang string) {
	token := s.reveal.Begin()
	s.logger.Info("Submitting text", zap.String("language", lang), zap.Int("length", len(text)))

	result, err := s.generator.Generate(s.ctx, text, lang)
	s.finishLoading()

	if err != nil {
		if s.ctx.Err() != nil {
			return
		}
		s.logger.Error("Generation failed", zap.Error(err), zap.String("code", errors.CodeOf(err)))
		s.reveal.Fail(token, i18n.For(s.Language()).ErrorFor(errors.CodeOf(err)))
		return
	}

	if err := s.reveal.Reveal(s.ctx, token, result); err != nil && err != reveal.ErrSuperseded {
		s.logger.Debug("Reveal stopped", zap.Error(err))
	}
}

func (s *Shell) finishLoading() {
	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()

	if s.ctx.Err() != nil {
		return
	}
	s.draw(func() {
		s.input.SetDisabled(false)
		s.applyLanguage()
	})
}

// ToggleLanguage switches between Portuguese and English and persists the choice.
func (s *Shell) ToggleLanguage() {
	s.mu.Lock()
	s.language = i18n.Toggle(s.language)
	lang := s.language
	s.mu.Unlock()

	s.applyLanguage()
	s.logger.Info("Language changed", zap.String("language", lang))

	if s.store == nil {
		return
	}
	s.wg.Go(func() {
		if err := preference.SaveLanguage(s.ctx, s.store, lang); err != nil {
			s.logger.Warn("Failed to save language preference", zap.Error(err))
		}
	})
}

// applyLanguage relabels every widget. Must run on the event loop.
func (s *Shell) applyLanguage() {
	s.mu.Lock()
	lang, loading := s.language, s.loading
	s.mu.Unlock()
	msgs := i18n.For(lang)

	pt, en := "PT", "EN"
	if lang == i18n.Portuguese {
		pt = "[::b]PT[::-]"
	} else {
		en = "[::b]EN[::-]"
	}
	s.header.SetText(fmt.Sprintf("[::b]TS;DR[::-]  %s | %s\n%s", pt, en, msgs.Tagline))

	s.input.SetPlaceholder(msgs.Placeholder)
	if loading {
		s.input.SetTitle(" " + msgs.Loading + " ")
	} else {
		s.input.SetTitle(fmt.Sprintf(" %s (Enter) ", msgs.ButtonText))
	}
	s.output.SetTitle(" " + msgs.ResultTitle + " ")
	s.footer.SetText(fmt.Sprintf("%s Ctrl+L: PT/EN • Esc: quit", msgs.Footer))
}

// showOutput is the reveal sink. It is called with the reveal lock held, from
// a worker goroutine.
func (s *Shell) showOutput(text string) {
	if s.ctx.Err() != nil {
		return
	}
	s.draw(func() {
		s.output.SetText(text)
		s.output.ScrollToEnd()
	})
}

func (s *Shell) quit() {
	s.logger.Info("Shutting down UI")
	s.cancel()
	s.app.Stop()
}

// waitWithTimeout waits for workers, giving up on any stuck on a draw that the
// stopped event loop will never run.
func (s *Shell) waitWithTimeout(timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		s.logger.Warn("UI workers did not finish in time")
	}
}
