package cli

import (
	"context"
	"fmt"
)

func (a *App) listClasses(ctx context.Context) error {
	classes, err := a.deps.Backend.ListClasses(ctx)
	if err != nil {
		return err
	}
	a.printList("Classes", classes)
	return nil
}

func (a *App) listSubjects(ctx context.Context, class string) error {
	subjects, err := a.deps.Backend.ListSubjects(ctx, class)
	if err != nil {
		return err
	}
	a.printList("Subjects in class "+class, subjects)
	return nil
}

func (a *App) listTopics(ctx context.Context, class, subject string) error {
	topics, err := a.deps.Backend.ListTopics(ctx, class, subject)
	if err != nil {
		return err
	}
	a.printList("Topics in "+subject, topics)
	return nil
}

func (a *App) listQuizzes(ctx context.Context, class, subject, topic string) error {
	quizzes, err := a.deps.Backend.ListQuizzes(ctx, class, subject, topic)
	if err != nil {
		return err
	}
	if len(quizzes) == 0 {
		fmt.Fprintf(a.out, "No quizzes in %s.\n", topic)
		return nil
	}

	fmt.Fprintf(a.out, "Quizzes in %s:\n", topic)
	for idx, item := range quizzes {
		fmt.Fprintf(a.out, "%d. %s (%d questions, %d min)\n", idx+1, item.Name, item.QuestionCount, item.DurationMinutes)
	}
	return nil
}

func (a *App) printList(title string, items []string) {
	if len(items) == 0 {
		fmt.Fprintf(a.out, "%s: none.\n", title)
		return
	}
	fmt.Fprintf(a.out, "%s:\n", title)
	for idx, item := range items {
		fmt.Fprintf(a.out, "%d. %s\n", idx+1, item)
	}
}
