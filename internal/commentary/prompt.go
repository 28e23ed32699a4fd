package commentary

import (
	"fmt"
	"strings"
	"sync"
	"text/template"

	"github.com/everyoung1209/mbc-ai-baseballgame/assets"
	"github.com/everyoung1209/mbc-ai-baseballgame/internal/game"
)

var (
	promptOnce sync.Once
	promptTmpl *template.Template
	promptErr  error
)

type promptData struct {
	Length  int
	Secret  game.Secret
	History []game.GuessRecord
	Latest  game.Guess
	Strikes int
	Balls   int
}

// BuildPrompt renders the game-master prompt for req.
func BuildPrompt(req game.CommentaryRequest) (string, error) {
	promptOnce.Do(func() {
		src, err := assets.CommentaryPrompt()
		if err != nil {
			promptErr = fmt.Errorf("load prompt template: %w", err)
			return
		}
		promptTmpl, promptErr = template.New("commentary").Parse(src)
	})
	if promptErr != nil {
		return "", promptErr
	}

	var b strings.Builder
	err := promptTmpl.Execute(&b, promptData{
		Length:  game.CodeLength,
		Secret:  req.Secret,
		History: req.History,
		Latest:  req.Latest,
		Strikes: req.Strikes,
		Balls:   req.Balls,
	})
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return b.String(), nil
}
