// Package notifier delivers booking confirmations to guests. The email
// body is drafted by Gemini so the note reads like the front desk wrote
// it; when generation fails a canned template is used instead.
package notifier

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/omnilodge/concierge/domain/entities"
)

const composeModel = "gemini-2.0-flash"

var composeSafetySettings = []*genai.SafetySetting{
	{
		Category:  genai.HarmCategoryHateSpeech,
		Threshold: genai.HarmBlockThresholdBlockOnlyHigh,
	},
	{
		Category:  genai.HarmCategoryHarassment,
		Threshold: genai.HarmBlockThresholdBlockOnlyHigh,
	},
	{
		Category:  genai.HarmCategoryDangerousContent,
		Threshold: genai.HarmBlockThresholdBlockOnlyHigh,
	},
}

// GeminiComposer drafts confirmation email bodies with Gemini.
type GeminiComposer struct {
	client *genai.Client
	logger *zap.Logger
}

// NewGeminiComposer creates the composer. The API key is required.
func NewGeminiComposer(ctx context.Context, apiKey string, logger *zap.Logger) (*GeminiComposer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiComposer{
		client: client,
		logger: logger,
	}, nil
}

// Compose returns a short confirmation email body for the booking. It
// never returns an error: generation failures fall back to a template.
func (c *GeminiComposer) Compose(ctx context.Context, booking *entities.Booking) string {
	prompt := fmt.Sprintf(
		"Write a short, warm confirmation email body (no subject line, no placeholders) from the "+
			"Omnilodge hotel front desk to %s. Their %s is booked from %s to %s for %d guest(s), "+
			"%d night(s) at a total of %d %s. Their confirmation code is %s. Mention the code "+
			"exactly once. Keep it under 100 words.",
		booking.GuestName, booking.RoomType, booking.CheckIn, booking.CheckOut,
		booking.Guests, booking.Nights, booking.TotalCost, booking.Currency,
		booking.ConfirmationCode)

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		SafetySettings:  composeSafetySettings,
		Temperature:     genai.Ptr(float32(0.7)),
		MaxOutputTokens: 256,
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	var response *genai.GenerateContentResponse
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		response, err = c.client.Models.GenerateContent(ctx, composeModel, contents, config)
		if err == nil {
			break
		}
		c.logger.Warn("Failed to compose confirmation email, retrying",
			zap.Int("attempt", attempt+1),
			zap.Error(err))
		if attempt < 2 {
			time.Sleep(time.Duration(attempt+1) * time.Second)
		}
	}
	if err != nil {
		return fallbackBody(booking)
	}

	if len(response.Candidates) == 0 || response.Candidates[0].Content == nil ||
		len(response.Candidates[0].Content.Parts) == 0 {
		c.logger.Warn("No content generated for confirmation email")
		return fallbackBody(booking)
	}

	var text string
	for _, part := range response.Candidates[0].Content.Parts {
		if part.Text != "" {
			text += part.Text
		}
	}
	if text == "" {
		return fallbackBody(booking)
	}
	return text
}

func fallbackBody(booking *entities.Booking) string {
	return fmt.Sprintf(
		"Dear %s,\n\nYour %s at Omnilodge is confirmed from %s to %s "+
			"(%d night(s), total %d %s). Your confirmation code is %s.\n\n"+
			"We look forward to welcoming you.\nThe Omnilodge Front Desk",
		booking.GuestName, booking.RoomType, booking.CheckIn, booking.CheckOut,
		booking.Nights, booking.TotalCost, booking.Currency,
		booking.ConfirmationCode)
}
