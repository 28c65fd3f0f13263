package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

// Transactional mail via an HTTP mail API (Resend-compatible shape).
// All senders here are best-effort: a mail failure must never fail the
// request that triggered it, callers only get a log line.

const mailDefaultBaseURL = "https://api.resend.com"

type MailError struct {
	Message  string
	HTTPCode int
}

func (e *MailError) Error() string {
	return fmt.Sprintf("mail error [%d]: %s", e.HTTPCode, e.Message)
}

type mailSendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
}

type mailSendResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// SendMail posts one message to the mail API. Returns an error when the
// API key is missing or the API answers non-2xx.
func SendMail(to, subject, text string) error {
	apiKey := os.Getenv("MAIL_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("MAIL_API_KEY not set")
	}

	from := os.Getenv("MAIL_FROM")
	if from == "" {
		from = "Ken <no-reply@ken.app>"
	}
	baseURL := os.Getenv("MAIL_API_URL")
	if baseURL == "" {
		baseURL = mailDefaultBaseURL
	}

	reqBody := mailSendRequest{
		From:    from,
		To:      []string{to},
		Subject: subject,
		Text:    text,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest("POST", baseURL+"/emails", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var mr mailSendResponse
		_ = json.Unmarshal(body, &mr)
		return &MailError{Message: mr.Message, HTTPCode: resp.StatusCode}
	}

	return nil
}

// SendOTPEmail delivers a verification code. Best-effort: failures are
// logged and swallowed so the caller's transaction result stands.
func SendOTPEmail(to, code string, ttl time.Duration) {
	minutes := int(ttl.Minutes())
	text := fmt.Sprintf("Your Ken verification code is %s. It expires in %d minutes.", code, minutes)
	if err := SendMail(to, "Your verification code", text); err != nil {
		log.Printf("mailer: OTP email to %s failed: %v", to, err)
	}
}

// SendWithdrawalProcessedEmail notifies a user about a settled withdrawal.
func SendWithdrawalProcessedEmail(to, reference, status string) {
	text := fmt.Sprintf("Your withdrawal %s has been %s.", reference, status)
	if err := SendMail(to, "Withdrawal update", text); err != nil {
		log.Printf("mailer: withdrawal email to %s failed: %v", to, err)
	}
}
