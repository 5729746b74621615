package usecases

import (
	"strings"
	"unicode"
)

const (
	StockCommandToken  = "!cekstok"
	DetailCommandToken = "!detail "
)

// Command is the closed set of routes a normalized message can take.
type Command interface {
	isCommand()
}

// StockCommand lists products with their stock quantities.
type StockCommand struct{}

// DetailCommand asks for a single product's details.
type DetailCommand struct {
	Product string
}

// QuestionCommand is any free-form question answered from sheet data.
type QuestionCommand struct {
	Text string
}

func (StockCommand) isCommand()    {}
func (DetailCommand) isCommand()   {}
func (QuestionCommand) isCommand() {}

// RouteCommand classifies text. Priority: stock, then detail prefix, else question.
func RouteCommand(text string) Command {
	if strings.ToLower(removeWhitespace(text)) == StockCommandToken {
		return StockCommand{}
	}

	if len(text) >= len(DetailCommandToken) && strings.EqualFold(text[:len(DetailCommandToken)], DetailCommandToken) {
		return DetailCommand{Product: text[len(DetailCommandToken):]}
	}

	return QuestionCommand{Text: text}
}

func removeWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// CommandName is a short label for logs and API responses.
func CommandName(cmd Command) string {
	switch cmd.(type) {
	case StockCommand:
		return "stock"
	case DetailCommand:
		return "detail"
	case QuestionCommand:
		return "question"
	default:
		return ""
	}
}
