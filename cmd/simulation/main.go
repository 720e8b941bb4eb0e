// Command simulation walks one learner through a chapter offline: page turns up to the first
// milestone, an AI action that fails and is annotated as a note instead, and a full typed
// assessment scored by the local fallback. No network services are contacted.
package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"ai-reading-be/internal/pkg/logger"
	"ai-reading-be/pkg/annotation"
	"ai-reading-be/pkg/assessment"
	"ai-reading-be/pkg/navigation"
	"ai-reading-be/pkg/overlay"
	"ai-reading-be/pkg/speech"
	"ai-reading-be/pkg/tutor"

	"github.com/fatih/color"
)

var errOffline = errors.New("tutor is offline")

// offlineTutor fails every call so each engine takes its fallback path.
type offlineTutor struct{}

func (offlineTutor) FetchQuestions(context.Context, tutor.Topic, int) ([]string, error) {
	return nil, errOffline
}

func (offlineTutor) SubmitAnswer(context.Context, string, int, string) error {
	return errOffline
}

func (offlineTutor) EvaluateSession(context.Context, string, tutor.Batch) (*tutor.Evaluation, error) {
	return nil, errOffline
}

func (offlineTutor) RequestAIAction(context.Context, tutor.AIActionRequest) (*tutor.AIActionResult, error) {
	return nil, errOffline
}

func main() {
	ctx := context.Background()
	topic := tutor.Topic{ClassLevel: "Grade 8", Subject: "Science", Chapter: "Cells"}
	const documentID = "demo-document"

	color.Cyan("=== Offline Reading Simulation ===")
	fmt.Printf("Chapter: %s / %s / %s\n", topic.ClassLevel, topic.Subject, topic.Chapter)

	// 1. Navigation
	color.Yellow("\n[1] Reading to the first milestone")
	sched := navigation.NewManualScheduler()
	cfg := navigation.DefaultConfig()

	var milestone *navigation.Milestone
	nav := navigation.NewController(24, cfg,
		navigation.WithScheduler(sched),
		navigation.OnAssessmentAvailable(func(m navigation.Milestone) {
			milestone = &m
		}),
	)
	defer nav.Close()

	for nav.State().Page < 10 {
		if !nav.GoToPage(1) {
			color.Red("Page turn rejected at page %d", nav.State().Page)
			os.Exit(1)
		}
		// a second turn mid-transition is ignored
		if nav.GoToPage(1) {
			color.Red("Concurrent page turn was accepted")
			os.Exit(1)
		}
		sched.Advance(cfg.OutDelay + cfg.InDelay)
	}
	color.Green("Now on page %d of %d", nav.State().Page, nav.State().PageCount)
	if milestone == nil {
		color.Red("No assessment became available")
		os.Exit(1)
	}
	color.Green("Assessment available for pages %d-%d", milestone.From, milestone.To)

	// 2. AI action with a failing tutor, then a note
	color.Yellow("\n[2] Asking the tutor about a selection")
	store := annotation.NewStore()
	svc := offlineTutor{}

	_, err := svc.RequestAIAction(ctx, tutor.AIActionRequest{Text: "mitochondria", Action: annotation.ActionDefine, Topic: topic})
	if err != nil {
		color.Red("AI action failed (retryable): %v", err)
	}

	if _, ok := store.AddNote(documentID, 10, "   ", "blank heading", "", annotation.Anchor{Synthesized: true}); !ok {
		fmt.Println("Blank note heading rejected")
	}
	for _, heading := range []string{"Mitochondria", "Cell wall", "Nucleus", "Ribosome", "Vacuole"} {
		store.AddNote(documentID, 10, heading, "", heading, annotation.Anchor{Synthesized: true})
	}

	placer := overlay.NewPlacer(overlay.DefaultConfig())
	for _, m := range placer.Place(store.ByPage(documentID, 10), 1) {
		fmt.Printf("  marker %-12s at (%.0f, %.0f)\n", m.Label, m.Position.X, m.Position.Y)
	}
	ribbon := placer.Ribbon(store.ByPage(documentID, 10), 600)
	color.Green("Ribbon shows %d markers %s", len(ribbon.Markers), ribbon.OverflowLabel())

	// 3. Assessment
	color.Yellow("\n[3] Taking the assessment")
	device := speech.NewDevice(nil, nil, nil, logger.NewNopLogger())
	session := assessment.NewSession("demo-session", topic, svc, device, assessment.DefaultConfig(),
		assessment.WithSource(documentID, milestone.From, milestone.To),
		assessment.WithRand(rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 7))),
	)
	defer session.Close()

	if err := session.Start(ctx, assessment.Capabilities{}); err != nil {
		color.Red("Start failed: %v", err)
		os.Exit(1)
	}

	snap := session.Snapshot()
	fmt.Printf("Input mode: %s, fallback questions: %t\n", snap.InputMode, snap.FallbackQuestions)
	if snap.Notice != "" {
		fmt.Println("Notice:", snap.Notice)
	}

	for {
		snap = session.Snapshot()
		q, ok := snap.CurrentQuestion()
		if !ok {
			break
		}
		fmt.Printf("Q%d: %s\n", snap.CurrentIndex+1, q)

		answer := fmt.Sprintf("My answer to question %d.", snap.CurrentIndex+1)
		if err := session.SetTypedAnswer(answer); err != nil {
			color.Red("Typing failed: %v", err)
			os.Exit(1)
		}
		if err := session.SubmitAnswer(ctx); err != nil {
			color.Red("Submit failed: %v", err)
			os.Exit(1)
		}
	}

	snap = session.Snapshot()
	if snap.Result == nil {
		color.Red("Assessment ended in %s without a result", snap.Phase)
		os.Exit(1)
	}
	color.Green("Score: %d/100 (fallback: %t)", snap.Result.Score, snap.Result.Fallback)
	fmt.Println("Feedback:", snap.Result.Feedback)
}
