package trainer

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/lowaak/smart-trainer/pose-trainer-app/internal/analysis"
	"github.com/lowaak/smart-trainer/pose-trainer-app/internal/catalog"
	"github.com/lowaak/smart-trainer/pose-trainer-app/internal/pose"
)

// Page names for tview.Pages
const (
	pageExerciseSelection = "exercise_selection"
	pagePlanSelection     = "plan_selection"
	pageCoachingDashboard = "coaching_dashboard"
)

// CursesUIViewImpl implements UIViewImpl using tview (curses-based terminal UI)
type CursesUIViewImpl struct {
	logger      *log.Logger
	app         *tview.Application
	model       *UIModel
	currentMode UIMode

	// Root container that holds all pages
	pages *tview.Pages

	// Shared components (visible in all modes)
	logView  *tview.TextView
	mainFlex *tview.Flex // Main layout: mode content on left, logs on right

	// Exercise Selection mode components
	exerciseSelectionFlex       *tview.Flex
	exerciseSelectionTabWidgets []*tview.Box
	exerciseList                *tview.List
	exerciseDetailsPanel        *tview.TextView
	exercises                   []UIExerciseModel

	// Plan Selection mode components
	planSelectionFlex       *tview.Flex
	planSelectionTabWidgets []*tview.Box
	planList                *tview.List
	planDetailsPanel        *tview.TextView
	plans                   []UIPlanModel

	// Coaching Dashboard mode components
	coachingDashboardFlex       *tview.Flex
	coachingDashboardTabWidgets []*tview.Box
	sessionPanel                *tview.TextView
	feedbackPanel               *tview.TextView
	transitionPanel             *tview.TextView
}

func NewCursesUIView(logger *log.Logger, app *tview.Application, model *UIModel) *CursesUIViewImpl {
	return &CursesUIViewImpl{
		logger:      logger,
		app:         app,
		model:       model,
		currentMode: UIModeExerciseSelection,
	}
}

// Initialize sets up the tview widgets
func (ui *CursesUIViewImpl) Initialize(controller *UIController) {
	// No SetChangedFunc with app.Draw() here: it can hang during shutdown.
	// BaseUIView calls Draw() after updating content.
	ui.logView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false)
	ui.logView.SetBorder(true).SetTitle(" Logs ")

	ui.pages = tview.NewPages()

	ui.initExerciseSelectionMode(controller)
	ui.initPlanSelectionMode(controller)
	ui.initCoachingDashboardMode(controller)

	ui.pages.AddPage(pageExerciseSelection, ui.exerciseSelectionFlex, true, true)
	ui.pages.AddPage(pagePlanSelection, ui.planSelectionFlex, true, false)
	ui.pages.AddPage(pageCoachingDashboard, ui.coachingDashboardFlex, true, false)

	// Create main layout: pages on left, logs on right
	ui.mainFlex = tview.NewFlex().
		AddItem(ui.pages, 0, 2, true).
		AddItem(ui.logView, 0, 1, false)

	ui.setFocusForCurrentMode()
}

func newInstructions(text string) *tview.TextView {
	instructions := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	instructions.SetText(text)
	return instructions
}

const modeKeysHelp = "[yellow]1[white] Exercises  |  [yellow]2[white] Plans  |  [yellow]3[white] Coaching  |  [yellow]Esc[white] Quit"

// initExerciseSelectionMode sets up the Exercise Selection mode UI
func (ui *CursesUIViewImpl) initExerciseSelectionMode(controller *UIController) {
	ui.exerciseList = tview.NewList().
		ShowSecondaryText(true).
		SetSelectedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
			ui.logger.Printf("UI: Exercise selected: index=%d, name=%s", index, mainText)
			controller.OnExerciseSelected(index)
		}).
		SetChangedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
			ui.updateExerciseDetailsDisplay(index)
		})
	ui.exerciseList.SetBorder(true).SetTitle(" Exercises ")

	ui.exerciseDetailsPanel = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	ui.exerciseDetailsPanel.SetBorder(true).SetTitle(" Stages ")
	ui.updateExerciseDetailsDisplay(-1)

	ui.exerciseSelectionTabWidgets = append(ui.exerciseSelectionTabWidgets, ui.exerciseList.Box)
	ui.exerciseSelectionTabWidgets = append(ui.exerciseSelectionTabWidgets, ui.exerciseDetailsPanel.Box)

	row := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(ui.exerciseList, 0, 1, true).
		AddItem(ui.exerciseDetailsPanel, 0, 1, false)

	ui.exerciseSelectionFlex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(newInstructions("[yellow]Enter[white] Start exercise  |  [yellow]Tab[white] Switch panel\n"+modeKeysHelp), 2, 0, false).
		AddItem(row, 0, 1, true)
}

// initPlanSelectionMode sets up the Plan Selection mode UI
func (ui *CursesUIViewImpl) initPlanSelectionMode(controller *UIController) {
	ui.planList = tview.NewList().
		ShowSecondaryText(true).
		SetSelectedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
			ui.logger.Printf("UI: Plan selected: index=%d, name=%s", index, mainText)
			controller.OnPlanSelected(index)
		}).
		SetChangedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
			ui.updatePlanDetailsDisplay(index)
		})
	ui.planList.SetBorder(true).SetTitle(" Training Plans ")

	ui.planDetailsPanel = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	ui.planDetailsPanel.SetBorder(true).SetTitle(" Plan Details ")
	ui.updatePlanDetailsDisplay(-1)

	ui.planSelectionTabWidgets = append(ui.planSelectionTabWidgets, ui.planList.Box)
	ui.planSelectionTabWidgets = append(ui.planSelectionTabWidgets, ui.planDetailsPanel.Box)

	row := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(ui.planList, 0, 1, true).
		AddItem(ui.planDetailsPanel, 0, 1, false)

	ui.planSelectionFlex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(newInstructions("[yellow]Enter[white] Start plan  |  [yellow]Tab[white] Switch panel\n"+modeKeysHelp), 2, 0, false).
		AddItem(row, 0, 1, true)
}

// initCoachingDashboardMode sets up the Coaching Dashboard mode UI
func (ui *CursesUIViewImpl) initCoachingDashboardMode(controller *UIController) {
	ui.sessionPanel = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	ui.sessionPanel.SetBorder(true).SetTitle(" Session ")

	ui.feedbackPanel = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	ui.feedbackPanel.SetBorder(true).SetTitle(" Feedback ")

	ui.transitionPanel = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	ui.transitionPanel.SetBorder(true).SetTitle(" Plan ")

	ui.UpdateSessionState(SessionState{})

	ui.coachingDashboardTabWidgets = append(ui.coachingDashboardTabWidgets, ui.sessionPanel.Box)
	ui.coachingDashboardTabWidgets = append(ui.coachingDashboardTabWidgets, ui.feedbackPanel.Box)

	leftColumn := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(ui.sessionPanel, 0, 3, true).
		AddItem(ui.transitionPanel, 4, 0, false)

	row := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(leftColumn, 0, 1, true).
		AddItem(ui.feedbackPanel, 0, 1, false)

	ui.coachingDashboardFlex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(newInstructions("[yellow]N[white] Next exercise  |  [yellow]R[white] Restart plan  |  [yellow]X[white] Stop session\n"+modeKeysHelp), 2, 0, false).
		AddItem(row, 0, 1, true)
}

// SetExerciseList populates the exercise selection list
func (ui *CursesUIViewImpl) SetExerciseList(exercises []UIExerciseModel) {
	ui.exercises = exercises
	ui.exerciseList.Clear()

	for _, ex := range exercises {
		ui.exerciseList.AddItem(ex.Name, fmt.Sprintf("%d stages", ex.StageCount), 0, nil)
	}

	if len(exercises) > 0 {
		ui.updateExerciseDetailsDisplay(0)
	}
}

// SetPlanList populates the plan selection list
func (ui *CursesUIViewImpl) SetPlanList(plans []UIPlanModel) {
	ui.plans = plans
	ui.planList.Clear()

	for _, plan := range plans {
		ui.planList.AddItem(plan.Name, fmt.Sprintf("%d exercises", len(plan.Exercises)), 0, nil)
	}

	if len(plans) > 0 {
		ui.updatePlanDetailsDisplay(0)
	}
}

func (ui *CursesUIViewImpl) updateExerciseDetailsDisplay(index int) {
	if ui.exerciseDetailsPanel == nil {
		return
	}

	if index < 0 || index >= len(ui.exercises) {
		ui.exerciseDetailsPanel.SetText("\n\n  [yellow]Exercise Selection[white]\n\n  Select an exercise to see its stages.\n")
		return
	}

	ex, err := ui.model.catalog.Exercise(ui.exercises[index].ID)
	if err != nil {
		ui.exerciseDetailsPanel.SetText(fmt.Sprintf("\n  [red]%v[white]\n", err))
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n  [yellow]%s[white]\n\n", ex.Name)
	for i, stage := range ex.Stages {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, stage.Instruction)
		for _, ja := range stage.Joints() {
			fmt.Fprintf(&b, "     [gray]%-15s %5.0f°[white]\n", ja.Joint.DisplayName(), ja.Angle)
		}
	}
	b.WriteString("\n  [green]Press Enter to start this exercise[white]\n")
	ui.exerciseDetailsPanel.SetText(b.String())
}

func (ui *CursesUIViewImpl) updatePlanDetailsDisplay(index int) {
	if ui.planDetailsPanel == nil {
		return
	}

	if index < 0 || index >= len(ui.plans) {
		ui.planDetailsPanel.SetText("\n\n  [yellow]Training Plans[white]\n\n  Select a plan to see its exercises.\n")
		return
	}

	plan := ui.plans[index]
	var b strings.Builder
	fmt.Fprintf(&b, "\n  [yellow]%s[white]\n\n", plan.Name)
	for i, name := range plan.Exercises {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, name)
	}
	b.WriteString("\n  [gray]Each exercise starts its timer once you are in view.[white]\n")
	b.WriteString("\n  [green]Press Enter to start this plan[white]\n")
	ui.planDetailsPanel.SetText(b.String())
}

// SetMode switches the UI to the specified mode
func (ui *CursesUIViewImpl) SetMode(mode UIMode) {
	if ui.currentMode == mode {
		return
	}

	ui.currentMode = mode

	switch mode {
	case UIModeExerciseSelection:
		ui.pages.SwitchToPage(pageExerciseSelection)
	case UIModePlanSelection:
		ui.pages.SwitchToPage(pagePlanSelection)
	case UIModeCoachingDashboard:
		ui.pages.SwitchToPage(pageCoachingDashboard)
	}

	ui.setFocusForCurrentMode()
}

// GetCurrentMode returns the currently active UI mode
func (ui *CursesUIViewImpl) GetCurrentMode() UIMode {
	return ui.currentMode
}

// setFocusForCurrentMode sets focus to the first widget in the current mode
func (ui *CursesUIViewImpl) setFocusForCurrentMode() {
	widgets := ui.getTabWidgetsForCurrentMode()
	if len(widgets) > 0 {
		ui.app.SetFocus(widgets[0])
	}
}

// getTabWidgetsForCurrentMode returns the tab widgets for the current mode
func (ui *CursesUIViewImpl) getTabWidgetsForCurrentMode() []*tview.Box {
	switch ui.currentMode {
	case UIModeExerciseSelection:
		return ui.exerciseSelectionTabWidgets
	case UIModePlanSelection:
		return ui.planSelectionTabWidgets
	case UIModeCoachingDashboard:
		return ui.coachingDashboardTabWidgets
	default:
		return nil
	}
}

// SetupKeyboardHandlers sets up keyboard event handlers
func (ui *CursesUIViewImpl) SetupKeyboardHandlers(controller *UIController) {
	ui.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		// Number keys for mode switching
		if event.Key() == tcell.KeyRune {
			if mode, ok := GetUIModeByKey(event.Rune()); ok {
				// Delegate to controller - it will update the model, which will notify us
				controller.OnModeChange(mode)
				return nil
			}
		}

		// Tab to switch focus between widgets in current mode
		if event.Key() == tcell.KeyTab {
			widgets := ui.getTabWidgetsForCurrentMode()
			widgetCount := len(widgets)
			for i := 0; i < widgetCount; i++ {
				if widgets[i].HasFocus() {
					ui.app.SetFocus(widgets[(i+1)%widgetCount])
					break
				}
			}
			return nil
		}

		if event.Key() == tcell.KeyEscape {
			controller.OnEscapeKey()
			return nil
		}

		if ui.currentMode == UIModeCoachingDashboard && event.Key() == tcell.KeyRune {
			// Session commands block on the session goroutine, keep them off the UI loop
			switch event.Rune() {
			case 'n':
				go controller.AdvancePlan()
				return nil
			case 'r':
				go controller.RestartPlan()
				return nil
			case 'x':
				go controller.StopSession()
				return nil
			}
		}

		return event
	})
}

// GetLogViewHeight returns the visible height of the log view
func (ui *CursesUIViewImpl) GetLogViewHeight() int {
	_, _, _, height := ui.logView.GetInnerRect()
	return height
}

// ClearLogView clears the log view
func (ui *CursesUIViewImpl) ClearLogView() {
	ui.logView.Clear()
}

// WriteLogLine writes a line to the log view
func (ui *CursesUIViewImpl) WriteLogLine(line string) error {
	_, err := fmt.Fprint(ui.logView, tview.Escape(line))
	return err
}

// Draw refreshes/redraws the UI
func (ui *CursesUIViewImpl) Draw() error {
	ui.app.Draw()
	return nil
}

// Run starts the UI and blocks until it exits
func (ui *CursesUIViewImpl) Run() error {
	// SetRoot must be called before setting focus, otherwise focus may be reset
	ui.app.SetRoot(ui.mainFlex, true)
	ui.setFocusForCurrentMode()
	return ui.app.Run()
}

// Stop stops the UI framework
func (ui *CursesUIViewImpl) Stop() {
	ui.app.Stop()
}

// UpdateSessionState updates the session and feedback panels
func (ui *CursesUIViewImpl) UpdateSessionState(state SessionState) {
	if ui.sessionPanel == nil || ui.feedbackPanel == nil {
		return
	}
	ui.sessionPanel.SetText(formatSessionPanel(state, ui.model.ExerciseName))
	ui.feedbackPanel.SetText(formatFeedbackPanel(state))
	if !state.HasPlan() {
		ui.transitionPanel.SetText("\n[gray]No plan running[white]")
	}
}

// ShowPlanTransition shows the latest plan transition until the next one
func (ui *CursesUIViewImpl) ShowPlanTransition(t PlanTransition) {
	if ui.transitionPanel == nil {
		return
	}
	ui.transitionPanel.SetText(formatPlanTransition(t, ui.model.ExerciseName))
}

// formatSessionPanel renders the exercise, stage and plan progress
func formatSessionPanel(state SessionState, exerciseName func(catalog.ExerciseID) string) string {
	if !state.HasExercise() {
		return "\n\n  [yellow]Coaching[white]\n\n" +
			"  Pick an exercise (press 1) or a training plan (press 2).\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n  [yellow]%s[white]\n\n", state.ExerciseName)
	fmt.Fprintf(&b, "  [cyan]Stage %d/%d[white]  %s\n", state.Stage+1, state.StageCount, state.Instruction)
	fmt.Fprintf(&b, "  [gray]Next stage in:[white] %s\n", formatCountdown(state.NextStageIn))

	if state.HasPlan() {
		fmt.Fprintf(&b, "\n  [yellow]%s[white] [gray](%s)[white]\n", state.PlanName, state.PlanStatus)
		if state.PlanStatus == PlanInProgress {
			fmt.Fprintf(&b, "  [gray]Exercise:[white] %d/%d\n", state.PlanIndex+1, state.PlanLength)
			if state.PlanTimerStarted {
				fmt.Fprintf(&b, "  [gray]Remaining:[white] %s\n", formatDurationMMSS(state.ExerciseRemaining))
			} else {
				b.WriteString("  [gray]Remaining:[white] waiting for you to step into view\n")
			}
			if state.NextExerciseID != "" {
				fmt.Fprintf(&b, "  [gray]Next:[white] %s\n", exerciseName(state.NextExerciseID))
			} else {
				b.WriteString("  [gray]Next:[white] [green]Finish![white]\n")
			}
		}
	}

	fmt.Fprintf(&b, "\n  [gray]Frames:[white] %d\n", state.FramesSeen)
	return b.String()
}

// formatFeedbackPanel renders the score, joint messages and tips of the last frame
func formatFeedbackPanel(state SessionState) string {
	res := state.LastResult
	if !state.HasExercise() {
		return ""
	}
	if res.NoPose || res.ExerciseID == "" {
		return "\n\n  [gray]No person detected[white]\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n  Score: [%s]%d[white] [gray](%s)[white]\n\n", bandColor(res.Band), res.Score, res.Band)

	for _, jf := range res.Joints {
		if jf.Text == "" {
			fmt.Fprintf(&b, "  [green]✓[white] %-15s %5.0f° [gray](ref %3.0f°)[white]\n", jf.Joint.DisplayName(), jf.UserAngle, jf.ReferenceAngle)
			continue
		}
		fmt.Fprintf(&b, "  [%s]![white] %s [gray](%+.0f°)[white]\n", severityColor(jf.Severity), jf.Text, jf.UserAngle-jf.ReferenceAngle)
	}
	for _, j := range pose.AllJoints {
		if _, skipped := res.Skipped[j.ID]; skipped {
			fmt.Fprintf(&b, "  [gray]? %s not measurable[white]\n", j.DisplayName)
		}
	}

	if len(res.Tips) > 0 {
		b.WriteString("\n  [yellow]Tips[white]\n")
		for _, tip := range res.Tips {
			fmt.Fprintf(&b, "  • %s\n", tip)
		}
	}
	return b.String()
}

// formatPlanTransition renders a plan transition banner
func formatPlanTransition(t PlanTransition, exerciseName func(catalog.ExerciseID) string) string {
	switch t.Kind {
	case TransitionExerciseChanged:
		return fmt.Sprintf("\n[green]%s complete![white]  Next: [yellow]%s[white]",
			exerciseName(t.Previous), exerciseName(t.Next))
	case TransitionPlanCompleted:
		return fmt.Sprintf("\n[green]%s completed![white]  Press [yellow]R[white] to go again", t.PlanName)
	default:
		return ""
	}
}

func bandColor(band analysis.ScoreBand) string {
	switch band {
	case analysis.ScoreBandGood:
		return "green"
	case analysis.ScoreBandFair:
		return "yellow"
	default:
		return "red"
	}
}

func severityColor(s analysis.Severity) string {
	switch s {
	case analysis.SeveritySevere:
		return "red"
	case analysis.SeverityModerate:
		return "yellow"
	default:
		return "green"
	}
}

// formatCountdown formats a short countdown as seconds with one decimal
func formatCountdown(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// formatDurationMMSS formats a duration as MM:SS
func formatDurationMMSS(d time.Duration) string {
	totalSeconds := int(d.Seconds())
	minutes := totalSeconds / 60
	seconds := totalSeconds % 60
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
