package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"llm-qa/internal/answer"
)

const (
	banner        = "LLM Q&A CLI - ask a natural-language question (type 'quit' to exit)"
	prompt        = "\n> "
	maxRawPreview = 2000
	maxLineBytes  = 1 << 20
)

// Answerer is the part of answer.Service the shell needs.
type Answerer interface {
	GetAnswer(ctx context.Context, question string, opts answer.Options) answer.Result
}

type shell struct {
	in      io.Reader
	out     io.Writer
	answers Answerer
	log     *slog.Logger
}

func newShell(in io.Reader, out io.Writer, answers Answerer, log *slog.Logger) *shell {
	return &shell{in: in, out: out, answers: answers, log: log}
}

// Run reads questions until quit/exit, end of input or ctx cancellation.
func (s *shell) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.println(banner)
	lines := s.readLines(ctx)

	for {
		s.print(prompt)
		select {
		case <-ctx.Done():
			s.println("\nInterrupted. Goodbye.")
			return nil
		case line, ok := <-lines:
			if !ok {
				s.println("\nGoodbye.")
				return nil
			}
			question := strings.TrimSpace(line)
			if question == "" {
				s.println("Please type a non-empty question (or 'quit' to exit).")
				continue
			}
			if cmd := strings.ToLower(question); cmd == "quit" || cmd == "exit" {
				s.println("Goodbye.")
				return nil
			}
			res := s.answers.GetAnswer(ctx, question, answer.Options{})
			s.log.Debug("answer result", "result", res)
			s.printResult(res)
		}
	}
}

// readLines feeds input lines into a channel that is closed at end of input.
func (s *shell) readLines(ctx context.Context) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(s.in)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			s.log.Warn("failed to read input", "err", err)
		}
	}()
	return lines
}

func (s *shell) printResult(res answer.Result) {
	if res.OK {
		s.println("\nAnswer:\n")
		if res.Answer == "" {
			s.println("(no answer)")
		} else {
			s.println(res.Answer)
		}
		if res.Preprocessed != nil {
			s.println(fmt.Sprintf("\n[preprocessing: %d tokens]", len(res.Preprocessed.Tokens)))
		}
		return
	}

	s.println("\nError: " + res.Error)
	if hasPayload(res.Raw) {
		s.println("\nRaw provider response (truncated):")
		s.println(truncateRunes(prettyRaw(res.Raw), maxRawPreview))
	}
}

// hasPayload reports whether raw carries anything worth showing.
func hasPayload(raw json.RawMessage) bool {
	switch strings.TrimSpace(string(raw)) {
	case "", "null", "{}", "[]", `""`:
		return false
	}
	return true
}

// prettyRaw indents JSON objects; anything else is wrapped as {"raw": ...}.
func prettyRaw(raw json.RawMessage) string {
	parsed := gjson.ParseBytes(raw)
	if parsed.IsObject() {
		return strings.TrimRight(string(pretty.Pretty(raw)), "\n")
	}
	wrapped, err := json.Marshal(map[string]string{"raw": parsed.String()})
	if err != nil {
		return string(raw)
	}
	return strings.TrimRight(string(pretty.Pretty(wrapped)), "\n")
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func (s *shell) print(msg string) {
	if _, err := io.WriteString(s.out, msg); err != nil {
		s.log.Warn("failed to write output", "err", err)
	}
}

func (s *shell) println(msg string) {
	s.print(msg + "\n")
}
