package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
)

type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type sessionSummary struct {
	Id            string `json:"id"`
	Title         string `json:"title"`
	DocumentCount int    `json:"document_count"`
	MessageCount  int    `json:"message_count"`
	IsCurrent     bool   `json:"is_current"`
}

type sessionList struct {
	CurrentSessionId string           `json:"current_session_id"`
	Sessions         []sessionSummary `json:"sessions"`
}

type message struct {
	Role       string `json:"role"`
	Content    string `json:"content"`
	IsGreeting bool   `json:"is_greeting"`
}

type queryReply struct {
	Title string  `json:"title"`
	Reply message `json:"reply"`
}

type document struct {
	Id            string `json:"id"`
	Title         string `json:"title"`
	ChunksCreated int    `json:"chunks_created"`
}

type client struct {
	baseURL string
	http    *http.Client
}

func (c *client) send(method, path, contentType string, body io.Reader, out interface{}) error {
	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%s: unreadable response", resp.Status)
	}
	if !env.Success {
		return fmt.Errorf("%s", env.Message)
	}
	if out != nil && len(env.Data) > 0 {
		return json.Unmarshal(env.Data, out)
	}
	return nil
}

func (c *client) sendJSON(method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
	}
	return c.send(method, path, "application/json", body, out)
}

func (c *client) upload(sessionId, path string) (*document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(content); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	var doc document
	err = c.send(http.MethodPost, "/sessions/"+sessionId+"/documents/upload", writer.FormDataContentType(), &body, &doc)
	return &doc, err
}

func (c *client) sessions() (*sessionList, error) {
	var list sessionList
	err := c.sendJSON(http.MethodGet, "/sessions", nil, &list)
	return &list, err
}

func printSessions(list *sessionList) {
	for i, s := range list.Sessions {
		marker := "  "
		if s.IsCurrent {
			marker = "* "
		}
		fmt.Printf("%s%d. %s (%d docs, %d messages)\n", marker, i+1, s.Title, s.DocumentCount, s.MessageCount)
	}
}

func printHelp() {
	color.Cyan("Commands:")
	fmt.Println("  /list               list conversations")
	fmt.Println("  /new                start a conversation")
	fmt.Println("  /use N              switch to conversation N")
	fmt.Println("  /delete             delete the current conversation")
	fmt.Println("  /upload PATH        upload a file into the current conversation")
	fmt.Println("  /text TEXT          ingest pasted text")
	fmt.Println("  /health             backend health")
	fmt.Println("  /quit               exit")
	fmt.Println("Anything else is sent as a question.")
}

func main() {
	baseURL := flag.String("api", "http://localhost:3000/api/chat/v1", "chat API base URL")
	flag.Parse()

	c := &client{baseURL: strings.TrimRight(*baseURL, "/"), http: &http.Client{Timeout: 3 * time.Minute}}

	list, err := c.sessions()
	if err != nil {
		color.Red("Cannot reach %s: %v", c.baseURL, err)
		os.Exit(1)
	}
	current := list.CurrentSessionId

	color.Cyan("RAG chat, conversation %s", current)
	printHelp()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		color.New(color.FgHiBlack).Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		command, arg, _ := strings.Cut(line, " ")

		switch command {
		case "":
			continue

		case "/quit":
			return

		case "/help":
			printHelp()

		case "/list":
			list, err := c.sessions()
			if err != nil {
				color.Red("%v", err)
				continue
			}
			printSessions(list)

		case "/new":
			var created sessionSummary
			if err := c.sendJSON(http.MethodPost, "/sessions", nil, &created); err != nil {
				color.Red("%v", err)
				continue
			}
			current = created.Id
			color.Green("Started %s", created.Title)

		case "/use":
			list, err := c.sessions()
			if err != nil {
				color.Red("%v", err)
				continue
			}
			n, err := strconv.Atoi(arg)
			if err != nil || n < 1 || n > len(list.Sessions) {
				color.Red("No conversation %q", arg)
				continue
			}
			target := list.Sessions[n-1]
			if err := c.sendJSON(http.MethodPut, "/sessions/"+target.Id+"/select", nil, nil); err != nil {
				color.Red("%v", err)
				continue
			}
			current = target.Id
			color.Green("Switched to %s", target.Title)

		case "/delete":
			var list sessionList
			if err := c.sendJSON(http.MethodDelete, "/sessions/"+current, nil, &list); err != nil {
				color.Red("%v", err)
				continue
			}
			current = list.CurrentSessionId
			color.Yellow("Deleted. Now in conversation %s", current)

		case "/upload":
			doc, err := c.upload(current, arg)
			if err != nil {
				color.Red("Upload failed: %v", err)
				continue
			}
			color.Green("Added %s (%d chunks)", doc.Title, doc.ChunksCreated)

		case "/text":
			var doc document
			if err := c.sendJSON(http.MethodPost, "/sessions/"+current+"/documents/text", map[string]string{"text": arg}, &doc); err != nil {
				color.Red("Ingestion failed: %v", err)
				continue
			}
			color.Green("Added %s (%d chunks)", doc.Title, doc.ChunksCreated)

		case "/health":
			var health map[string]interface{}
			if err := c.sendJSON(http.MethodGet, "/health", nil, &health); err != nil {
				color.Red("%v", err)
				continue
			}
			for k, v := range health {
				fmt.Printf("  %s: %v\n", k, v)
			}

		default:
			color.New(color.FgHiBlack).Println("thinking...")
			var reply queryReply
			if err := c.sendJSON(http.MethodPost, "/sessions/"+current+"/query", map[string]string{"query": line}, &reply); err != nil {
				color.Red("%v", err)
				continue
			}
			if reply.Reply.IsGreeting {
				color.Cyan("%s", reply.Reply.Content)
			} else {
				color.White("%s", reply.Reply.Content)
			}
		}
	}
}
