package utils

import (
	"fmt"
	"strings"

	"mlimi/internal/domain"
)

// BuildWelcome greets a farmer starting a chat with the bot.
func BuildWelcome() string {
	return "🌾 Welcome to the Agricultural Advisor Bot for Malawi, Lilongwe! 🌾\n\n" +
		"I'm here to help you with farming advice specific to your region.\n" +
		"Just send me your agricultural questions and I'll do my best to help!\n\n" +
		"Examples:\n" +
		"• What crops grow best in Lilongwe?\n" +
		"• How to manage pests in maize?\n" +
		"• When is the best time to plant beans?"
}

// BuildHelp explains the commands.
func BuildHelp() string {
	return "🔍 How to use this bot:\n\n" +
		"Simply type your agricultural question and send it to me.\n" +
		"I'll search my knowledge base and online resources to provide you with accurate advice.\n\n" +
		"Commands:\n" +
		"/start - Welcome message\n" +
		"/help - Show this help message\n" +
		"/about - Learn more about this bot\n" +
		"/popular - Most asked questions"
}

// BuildAbout describes the bot.
func BuildAbout() string {
	return "ℹ️ About Agricultural Advisor Bot\n\n" +
		"This bot provides agricultural advice specifically for farmers in Lilongwe, Malawi.\n" +
		"It uses AI technology to deliver accurate, region-specific farming information.\n\n" +
		"Stay informed and improve your farming practices! 🌱"
}

// BuildPopular lists the most asked questions with their hit counts.
func BuildPopular(entries []domain.Advice) string {
	if len(entries) == 0 {
		return "No questions have been asked yet. Be the first! 🌱"
	}

	var b strings.Builder
	b.WriteString("🔝 Most asked questions:\n\n")
	for i, adv := range entries {
		b.WriteString(fmt.Sprintf("%d. %s (%d lookups)\n", i+1, adv.Query, adv.SearchCount))
	}
	return strings.TrimRight(b.String(), "\n")
}

// BuildDisclaimer is appended to freshly generated answers so farmers know
// the advice didn't come from the curated knowledge base.
func BuildDisclaimer() string {
	return "⚠️ This answer was generated from online sources. " +
		"Please verify critical decisions with your local extension officer."
}
