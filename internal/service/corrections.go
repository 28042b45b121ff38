package service

import (
	"github.com/sirupsen/logrus"

	"lactate-lab/internal/stage"
	"lactate-lab/internal/store"
	"lactate-lab/internal/threshold"
)

// StageCorrection records how an incomplete stage was adjusted
type StageCorrection struct {
	Stage           int
	Final           bool
	CompletionRatio float64
	MeasuredLoad    float64
	MeasuredLactate float64

	// Intermediate stages
	Load      *stage.Result
	Lactate   *stage.Result
	HeartRate *stage.Result

	// Final stage
	TheoreticalLoad *stage.Result
}

// correctStages turns stored stages into engine input. Intermediate stages
// that ended early get lactate and heart rate interpolated to full duration.
// An early-terminated final stage keeps its measured values and gains a
// theoretical load.
func correctStages(stages []store.Stage, targetDuration float64, logger logrus.FieldLogger) ([]threshold.DataPoint, []StageCorrection) {
	points := make([]threshold.DataPoint, 0, len(stages))
	var corrections []StageCorrection

	for i, st := range stages {
		number := st.Number
		p := threshold.DataPoint{
			Load:      st.Load,
			Lactate:   st.Lactate,
			HeartRate: st.HeartRate,
			VO2:       st.VO2,
			Stage:     &number,

			TheoreticalLoad: st.TheoreticalLoad,
		}

		if !incomplete(st, targetDuration) {
			points = append(points, p)
			continue
		}

		log := logger.WithField("stage", st.Number)
		c := StageCorrection{
			Stage:           st.Number,
			CompletionRatio: stage.CompletionRatio(*st.Duration, targetDuration),
			MeasuredLoad:    st.Load,
			MeasuredLactate: st.Lactate,
		}

		if i == len(stages)-1 && st.TheoreticalLoad != nil {
			// recorded with the test, nothing to extrapolate
			c.Final = true
			c.TheoreticalLoad = &stage.Result{
				Value:      *st.TheoreticalLoad,
				Method:     stage.MethodNone,
				Confidence: 1,
				Note:       NoteRecordedTheoreticalLoad,
			}
		} else if i == len(stages)-1 {
			c.Final = true
			prior := make([]float64, i)
			for j := range i {
				prior[j] = stages[j].Load
			}

			r := stage.ExtrapolateTheoreticalLoad(stage.FinalStage{
				CurrentLoad:    st.Load,
				PriorLoads:     prior,
				ActualDuration: *st.Duration,
				TargetDuration: targetDuration,
			}, stage.WithLogger(log))
			c.TheoreticalLoad = &r

			if r.Method != stage.MethodNone {
				v := r.Value
				p.TheoreticalLoad = &v
			}
		} else {
			in := stage.IncompleteStage{
				Current:        sampleOf(st),
				ActualDuration: *st.Duration,
				TargetDuration: targetDuration,
			}
			if i >= 1 {
				prev := sampleOf(stages[i-1])
				in.Previous = &prev
			}
			if i >= 2 {
				pre := sampleOf(stages[i-2])
				in.PrePrevious = &pre
			}

			out := stage.InterpolateIncompleteStage(in, stage.WithLogger(log))
			c.Load, c.Lactate, c.HeartRate = &out.Load, &out.Lactate, out.HeartRate

			// stage load is the protocol set point; only the physiological
			// responses are carried to full duration
			p.Lactate = out.Lactate.Value
			if out.HeartRate != nil {
				hr := out.HeartRate.Value
				p.HeartRate = &hr
			}
			p.IsInterpolated = out.Lactate.Method != stage.MethodNone
		}

		corrections = append(corrections, c)
		points = append(points, p)
	}

	return points, corrections
}

func incomplete(st store.Stage, targetDuration float64) bool {
	return st.Duration != nil && targetDuration > 0 && *st.Duration < targetDuration
}

func sampleOf(st store.Stage) stage.Sample {
	return stage.Sample{Load: st.Load, Lactate: st.Lactate, HeartRate: st.HeartRate}
}
