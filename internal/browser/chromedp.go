package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// DefaultNavigationTimeout bounds page loads and element waits.
const DefaultNavigationTimeout = 45 * time.Second

// detectFieldsJS walks the first form on the page and describes its inputs.
const detectFieldsJS = `
(() => {
  const form = document.querySelector('form');
  if (!form) return JSON.stringify([]);
  const fields = [];
  const labelFor = (el) => {
    if (el.id) {
      const l = document.querySelector('label[for="' + el.id + '"]');
      if (l) return l.innerText.trim();
    }
    const parent = el.closest('label');
    if (parent) return parent.innerText.trim();
    return el.getAttribute('placeholder') || el.name || '';
  };
  const sel = (el) => {
    if (el.id) return '#' + el.id;
    if (el.name) return el.tagName.toLowerCase() + '[name="' + el.name + '"]';
    return '';
  };
  form.querySelectorAll('input, textarea, select').forEach((el) => {
    const s = sel(el);
    if (!s) return;
    let kind = 'text';
    if (el.tagName === 'TEXTAREA') kind = 'textarea';
    else if (el.tagName === 'SELECT') kind = 'select';
    else if (el.type === 'checkbox') kind = 'checkbox';
    else if (el.type === 'file') kind = 'file';
    else if (el.type === 'hidden' || el.type === 'submit') return;
    fields.push({selector: s, label: labelFor(el), kind: kind, required: el.required === true});
  });
  return JSON.stringify(fields);
})()`

// submitButtonSelector matches the usual submit controls on apply forms.
const submitButtonSelector = `form button[type="submit"], form input[type="submit"], button[class*="submit"], button[id*="submit"]`

// ChromeAutomator drives a headless Chrome instance via chromedp.
// Requires Chrome/Chromium to be installed on the system.
type ChromeAutomator struct {
	Timeout time.Duration
	// Headless disables the visible browser window. Assisted flows open a
	// visible window so the human can take over the pre-filled form.
	Headless bool
}

// NewChromeAutomator creates a headless automator with default timeouts.
func NewChromeAutomator() *ChromeAutomator {
	return &ChromeAutomator{Timeout: DefaultNavigationTimeout, Headless: true}
}

// Open navigates a fresh browser context to the URL and returns the session.
func (a *ChromeAutomator) Open(ctx context.Context, url string) (Session, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", a.Headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	timeout := a.Timeout
	if timeout <= 0 {
		timeout = DefaultNavigationTimeout
	}
	runCtx, runCancel := context.WithTimeout(browserCtx, timeout)
	defer runCancel()

	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		// Give client-side rendering a moment to settle.
		chromedp.Sleep(2*time.Second),
	)
	if err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("opening %s: %w", url, err)
	}

	return &chromeSession{
		ctx:     browserCtx,
		cancels: []context.CancelFunc{browserCancel, allocCancel},
		timeout: timeout,
	}, nil
}

type chromeSession struct {
	ctx     context.Context
	cancels []context.CancelFunc
	timeout time.Duration
}

func (s *chromeSession) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- chromedp.Run(runCtx, actions...) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		cancel()
		<-done
		return ctx.Err()
	}
}

// DetectFields extracts the form fields present on the open page.
func (s *chromeSession) DetectFields(ctx context.Context) ([]FieldDescriptor, error) {
	var raw string
	if err := s.run(ctx, chromedp.Evaluate(detectFieldsJS, &raw)); err != nil {
		return nil, fmt.Errorf("detecting fields: %w", err)
	}

	var fields []FieldDescriptor
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("decoding detected fields: %w", err)
	}
	return fields, nil
}

// Fill populates one field with a value.
func (s *chromeSession) Fill(ctx context.Context, field FieldDescriptor, value string) error {
	var action chromedp.Action
	switch field.Kind {
	case FieldSelect:
		action = chromedp.SetValue(field.Selector, value, chromedp.ByQuery)
	case FieldCheckbox:
		if value != "" && value != "false" {
			action = chromedp.Click(field.Selector, chromedp.ByQuery)
		} else {
			return nil
		}
	case FieldFile:
		action = chromedp.SetUploadFiles(field.Selector, []string{value}, chromedp.ByQuery)
	default:
		action = chromedp.SendKeys(field.Selector, value, chromedp.ByQuery)
	}

	if err := s.run(ctx, action); err != nil {
		return fmt.Errorf("filling %s: %w", field.Selector, err)
	}
	return nil
}

// Submit clicks the form's submit control and inspects the resulting page
// for bot-challenge markers.
func (s *chromeSession) Submit(ctx context.Context) (SubmitResult, error) {
	var html string
	err := s.run(ctx,
		chromedp.Click(submitButtonSelector, chromedp.ByQuery),
		chromedp.Sleep(2*time.Second),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("submitting form: %w", err)
	}

	if ContainsChallenge(html) {
		return SubmitResult{OK: false, ChallengeDetected: true}, nil
	}
	return SubmitResult{OK: true}, nil
}

// Close releases the browser context.
func (s *chromeSession) Close() {
	for _, cancel := range s.cancels {
		cancel()
	}
}
