package game

import (
	"encoding/json"
	"fmt"
)

// TaskResults is the typed outcome of a claimed task. Exactly one variant is
// set, matching the task's type; Success is shared by every variant.
type TaskResults struct {
	Success    bool
	Scouting   *ScoutingOutcome
	Beats      *BeatsOutcome
	Contract   *ContractOutcome
	Recording  *RecordingOutcome
	Publishing *PublishingOutcome
	Marketing  *MarketingOutcome
	Training   *TrainingOutcome
	Production *ProductionOutcome
	Resting    *RestingOutcome
}

// ScoutingOutcome lists the artists the worker turned up.
type ScoutingOutcome struct {
	DiscoveredArtistIDs []string `json:"discoveredArtistIds"`
}

// BeatsOutcome lists the beats produced and their quality.
type BeatsOutcome struct {
	BeatIDs []string `json:"beatIds"`
	Quality int      `json:"quality"`
}

// ContractOutcome references the signed contract, if any.
type ContractOutcome struct {
	ContractID string `json:"contractId"`
}

// RecordingOutcome references the recorded release and its tracks.
type RecordingOutcome struct {
	ReleaseID string   `json:"releaseId"`
	TrackIDs  []string `json:"trackIds"`
}

// PublishingOutcome carries first-window sales numbers for a published release.
type PublishingOutcome struct {
	ReleaseID string `json:"releaseId"`
	Streams   int64  `json:"streams"`
	Revenue   int64  `json:"revenue"`
}

// MarketingOutcome carries the hype gained from a campaign.
type MarketingOutcome struct {
	HypeGained int `json:"hypeGained"`
}

// TrainingOutcome carries the worker's gains from a training block.
type TrainingOutcome struct {
	XPGained    int    `json:"xpGained"`
	SkillGained string `json:"skillGained,omitempty"`
}

// ProductionOutcome references the produced release.
type ProductionOutcome struct {
	ReleaseID string `json:"releaseId"`
}

// RestingOutcome carries the stamina the worker recovered.
type RestingOutcome struct {
	StaminaRestored int `json:"staminaRestored"`
}

type resultsEnvelope struct {
	Success bool `json:"success"`
}

// DecodeResults decodes a raw results payload into the variant matching the
// task's type.
func DecodeResults(t TaskType, raw json.RawMessage) (*TaskResults, error) {
	var env resultsEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to decode results envelope: %w", err)
	}

	r := &TaskResults{Success: env.Success}
	var variant any
	switch t {
	case TaskScouting:
		r.Scouting = &ScoutingOutcome{}
		variant = r.Scouting
	case TaskProducingBeats:
		r.Beats = &BeatsOutcome{}
		variant = r.Beats
	case TaskSigningContract:
		r.Contract = &ContractOutcome{}
		variant = r.Contract
	case TaskRecordingRelease:
		r.Recording = &RecordingOutcome{}
		variant = r.Recording
	case TaskPublishingRelease:
		r.Publishing = &PublishingOutcome{}
		variant = r.Publishing
	case TaskMarketingCampaign:
		r.Marketing = &MarketingOutcome{}
		variant = r.Marketing
	case TaskTraining:
		r.Training = &TrainingOutcome{}
		variant = r.Training
	case TaskProducingRelease:
		r.Production = &ProductionOutcome{}
		variant = r.Production
	case TaskResting:
		r.Resting = &RestingOutcome{}
		variant = r.Resting
	default:
		return nil, fmt.Errorf("unknown task type %q", t)
	}

	if err := json.Unmarshal(raw, variant); err != nil {
		return nil, fmt.Errorf("failed to decode %s results: %w", t, err)
	}
	return r, nil
}

// encode flattens the active variant and the shared success flag back into a
// single wire object.
func (r *TaskResults) encode() (json.RawMessage, error) {
	var variant any
	switch {
	case r.Scouting != nil:
		variant = r.Scouting
	case r.Beats != nil:
		variant = r.Beats
	case r.Contract != nil:
		variant = r.Contract
	case r.Recording != nil:
		variant = r.Recording
	case r.Publishing != nil:
		variant = r.Publishing
	case r.Marketing != nil:
		variant = r.Marketing
	case r.Training != nil:
		variant = r.Training
	case r.Production != nil:
		variant = r.Production
	case r.Resting != nil:
		variant = r.Resting
	}

	fields := map[string]any{"success": r.Success}
	if variant != nil {
		b, err := json.Marshal(variant)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(b, &fields); err != nil {
			return nil, err
		}
		fields["success"] = r.Success
	}
	return json.Marshal(fields)
}
