package generator

import (
	"fmt"
	"regexp"
	"strings"

	qerrors "github.com/taskventure/backend/internal/errors"
	"github.com/taskventure/backend/internal/gamification"
	"github.com/taskventure/backend/internal/models"
)

// The older reply format wraps each quest in <step></step>: a title line
// followed by one task per line.

var (
	stepPattern      = regexp.MustCompile(`(?s)<step>(.*?)(?:</step>|$)`)
	numberedLine     = regexp.MustCompile(`^\s*[0-9]+[.)]\s*`)
	taskBullet       = regexp.MustCompile(`^\s*(?:[-*•]|[0-9]+[.)])\s*`)
	missionLabel     = regexp.MustCompile(`(?i)^\s*mission:\s*`)
	markdownEmphasis = strings.NewReplacer("**", "", "__", "", "#", "")
)

func parseSteps(content string) ([]models.Quest, error) {
	matches := stepPattern.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil, qerrors.ErrParse("no <step> blocks in response", nil)
	}

	var errs []string
	quests := make([]models.Quest, 0, len(matches))
	for i, m := range matches {
		var lines []string
		for _, line := range strings.Split(m[1], "\n") {
			if line = strings.TrimSpace(line); line != "" {
				lines = append(lines, line)
			}
		}
		if len(lines) == 0 {
			errs = append(errs, fmt.Sprintf("step %d: empty", i+1))
			continue
		}

		title := cleanStepTitle(lines[0])
		if title == "" {
			errs = append(errs, fmt.Sprintf("step %d: empty title", i+1))
			continue
		}

		var tasks []string
		for _, line := range lines[1:] {
			if task := strings.TrimSpace(taskBullet.ReplaceAllString(line, "")); task != "" {
				tasks = append(tasks, task)
			}
		}
		// A bare title is a quest with one task: itself.
		if len(tasks) == 0 {
			tasks = []string{title}
		}

		quests = append(quests, models.Quest{
			Title:      title,
			Tasks:      tasks,
			Complexity: models.ComplexityEasy,
			XPReward:   gamification.StepQuestReward(title),
		})
	}

	if len(errs) > 0 {
		return nil, qerrors.ErrParse("invalid steps in response", &ValidationError{Errors: errs})
	}
	return quests, nil
}

func cleanStepTitle(line string) string {
	line = markdownEmphasis.Replace(line)
	line = missionLabel.ReplaceAllString(line, "")
	return strings.TrimSpace(line)
}

// reformatAsSteps wraps numbered or "Mission:" lines, with the dash lines
// under them, into <step> blocks. It returns "" when nothing matched.
func reformatAsSteps(content string) string {
	var b strings.Builder
	var current []string

	flush := func() {
		if len(current) > 0 {
			b.WriteString("<step>\n" + strings.Join(current, "\n") + "\n</step>\n")
			current = nil
		}
	}

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		switch {
		case strings.Contains(strings.ToLower(trimmed), "mission:") || numberedLine.MatchString(trimmed):
			flush()
			current = append(current, numberedLine.ReplaceAllString(trimmed, "Mission: "))
		case strings.HasPrefix(trimmed, "-") && len(current) > 0:
			current = append(current, trimmed)
		}
	}
	flush()
	return b.String()
}
