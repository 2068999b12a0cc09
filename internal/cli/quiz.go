package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"quiz-client/internal/app"
	"quiz-client/internal/apperr"
	"quiz-client/internal/quiz"
	"quiz-client/internal/session"
	"quiz-client/internal/storage"
)

func (a *App) take(ctx context.Context, key quiz.Key) error {
	proceed, err := a.confirmLeave("Start a new quiz anyway?")
	if err != nil || !proceed {
		return err
	}

	fmt.Fprintf(a.out, "Loading %s...\n", key.Name)
	if err := a.deps.Controller.StartQuiz(ctx, key); err != nil {
		if errors.Is(err, app.ErrSessionReset) {
			return nil
		}
		return err
	}
	printQuizHelp(a.out)
	return a.runQuiz(ctx)
}

func (a *App) resume(ctx context.Context) error {
	controller := a.deps.Controller
	if controller.State().Phase() == session.Idle {
		if err := controller.ResumeLast(ctx); err != nil {
			if errors.Is(err, app.ErrNoSession) {
				fmt.Fprintln(a.out, "No quiz to resume.")
				return nil
			}
			return err
		}
	}
	fmt.Fprintf(a.out, "Resuming %s.\n", controller.Key().Name)
	printQuizHelp(a.out)
	return a.runQuiz(ctx)
}

// runQuiz drives one attempt until the results are shown, the user quits or
// the session is logged out.
func (a *App) runQuiz(ctx context.Context) error {
	controller := a.deps.Controller
	state := controller.State()

	for {
		if a.loggedOut.Load() {
			return nil
		}
		switch state.Phase() {
		case session.Idle:
			return nil
		case session.Finished:
			return a.showResults(ctx)
		}

		a.renderQuestion(state)
		line, err := promptLine(a.reader, a.out, "answer> ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		// The countdown may have finished the attempt while we were waiting.
		if state.Phase() != session.InProgress {
			continue
		}

		if done, err := a.quizCommand(state, line); err != nil || done {
			return err
		}
	}
}

func (a *App) quizCommand(state *session.State, line string) (bool, error) {
	controller := a.deps.Controller
	command, arg, _ := strings.Cut(strings.TrimSpace(line), " ")

	switch strings.ToLower(command) {
	case "":
	case "n":
		controller.Advance()
	case "p":
		controller.Retreat()
	case "s":
		if controller.Skip() {
			fmt.Fprintln(a.out, "All questions answered or skipped.")
		}
	case "g":
		number, err := strconv.Atoi(strings.TrimSpace(arg))
		if err != nil {
			fmt.Fprintln(a.out, "usage: g <question number>")
			return false, nil
		}
		controller.JumpTo(number - 1)
	case "f":
		progress := state.Progress()
		prompt := "Finish now? (yes/no): "
		if progress.Unanswered > 0 {
			prompt = fmt.Sprintf("%d question(s) still unanswered. Finish now? (yes/no): ", progress.Unanswered)
		}
		finish, err := promptYesNo(a.reader, a.out, prompt)
		if err != nil {
			return true, err
		}
		if finish {
			controller.Finish()
		}
	case "q":
		leave, err := a.confirmLeave("Quit the quiz?")
		if err != nil {
			return true, err
		}
		if leave {
			controller.Reset()
			fmt.Fprintln(a.out, "Quiz abandoned.")
			return true, nil
		}
	case "?":
		printQuizHelp(a.out)
	default:
		a.answer(state, command)
	}
	return false, nil
}

// answer selects the option for a letter and moves on, except on the last
// question where the user finishes explicitly.
func (a *App) answer(state *session.State, letter string) {
	question, ok := state.CurrentQuestion()
	if !ok {
		return
	}
	options := question.Options()
	idx := quiz.LetterIndex(letter)
	if idx < 0 || idx >= len(options) {
		fmt.Fprintf(a.out, "Pick a letter between A and %s, or ? for help.\n", quiz.Letter(len(options)-1))
		return
	}

	a.deps.Controller.Select(options[idx])
	q, _ := state.Quiz()
	if state.CurrentIndex() < len(q.Questions)-1 {
		a.deps.Controller.Advance()
	}
}

func (a *App) renderQuestion(state *session.State) {
	question, ok := state.CurrentQuestion()
	if !ok {
		return
	}
	progress := state.Progress()
	slots := state.Slots()
	current := state.CurrentIndex()

	fmt.Fprintf(a.out, "\nQuestion %d/%d   answered %d, skipped %d   time left %s\n",
		current+1, progress.Total, progress.Answered, progress.Skipped, formatClock(state.Remaining()))
	fmt.Fprintln(a.out, question.Prompt)

	selected := ""
	if current < len(slots) && slots[current].IsAnswered() {
		selected = slots[current].Value
	}
	for idx, option := range question.Options() {
		marker := " "
		if option == selected {
			marker = "*"
		}
		fmt.Fprintf(a.out, " %s %s) %s\n", marker, quiz.Letter(idx), option)
	}
}

func (a *App) showResults(ctx context.Context) error {
	result, err := a.deps.Controller.Results(ctx)
	switch {
	case errors.Is(err, app.ErrSessionReset):
		return nil
	case errors.Is(err, app.ErrNotFinished):
		return err
	case err != nil:
		if a.loggedOut.Load() {
			return nil
		}
		fmt.Fprintf(a.out, "Could not score this attempt. %s\n", apperr.Describe(err))
	}

	printResult(a.out, result)
	return nil
}

func printResult(out io.Writer, result quiz.Result) {
	if result.Synthetic {
		fmt.Fprintln(out, "(score unavailable, every question is shown as skipped)")
	}
	fmt.Fprintf(out, "\nScore: %d/%d (%s)   correct %d, wrong %d, skipped %d\n",
		result.Correct, result.Total, formatPercentage(result.Percentage),
		result.Correct, result.Wrong, result.Skipped)

	for _, detail := range result.Details {
		fmt.Fprintf(out, "\n%d. %s [%s]\n", detail.QNo, detail.Prompt, detail.Status)
		if detail.Chosen != "" {
			fmt.Fprintf(out, "   your answer:    %s\n", detail.Chosen)
		}
		if detail.CorrectAnswer != "" {
			fmt.Fprintf(out, "   correct answer: %s\n", detail.CorrectAnswer)
		}
		if detail.Explanation != "" {
			fmt.Fprintf(out, "   %s\n", detail.Explanation)
		}
	}
}

// showLast prints the stored attempt. A finished attempt stays stored until
// the next quiz is started, so its score can be reviewed here.
func (a *App) showLast(ctx context.Context) error {
	record, err := a.deps.Controller.LastSession(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			fmt.Fprintln(a.out, "No previous attempt.")
			return nil
		}
		return err
	}

	snap := record.Snapshot
	fmt.Fprintf(a.out, "%s (%s)\n", snap.Quiz.Name, record.Key)
	fmt.Fprintf(a.out, "started %s\n", snap.StartedAt.Local().Format("2006-01-02 15:04"))

	switch {
	case record.Result != nil:
		printResult(a.out, *record.Result)
	case snap.ShowResults:
		fmt.Fprintln(a.out, "Finished but not scored yet. Type 'resume' to see the results.")
	default:
		answered := 0
		for _, answer := range snap.Answers {
			if answer != nil && *answer != "" {
				answered++
			}
		}
		fmt.Fprintf(a.out, "In progress: %d of %d answered, %s left at last save. Type 'resume' to continue.\n",
			answered, len(snap.Answers), formatClock(snap.Remaining))
	}
	return nil
}

func printQuizHelp(out io.Writer) {
	fmt.Fprintln(out, "Answer with a letter. n next, p previous, g <n> go to question, s skip, f finish, q quit, ? help.")
}
