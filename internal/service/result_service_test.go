package service

import (
	"encoding/json"
	"testing"

	"exam_prep_backend/internal/model"
)

func TestEngineResultRoundTrip(t *testing.T) {
	record := &model.TestResult{
		TestID:           "t1",
		ScorePercent:     60,
		CorrectCount:     3,
		WrongCount:       1,
		UnattemptedCount: 1,
		TimeTakenMinutes: 10,
		SectionAccuracy:  json.RawMessage(`{"Math":67,"Science":50}`),
		TopicWeaknesses:  json.RawMessage(`["Math"]`),
		Answers:          json.RawMessage(`{"q1":{"option":1}}`),
	}

	result, err := EngineResult(record)
	if err != nil {
		t.Fatalf("EngineResult err = %v", err)
	}

	if result.TestID != "t1" || result.ScorePercent != 60 {
		t.Errorf("result = %+v", result)
	}
	if result.SectionAccuracy["Math"] != 67 {
		t.Errorf("SectionAccuracy[Math] = %d, want 67", result.SectionAccuracy["Math"])
	}
	if len(result.TopicWeaknesses) != 1 || result.TopicWeaknesses[0] != "Math" {
		t.Errorf("TopicWeaknesses = %v", result.TopicWeaknesses)
	}
	if ans, ok := result.Answers["q1"]; !ok || ans.Option != 1 {
		t.Errorf("Answers = %v", result.Answers)
	}
}

func TestEngineResultEmptyJSONFields(t *testing.T) {
	record := &model.TestResult{TestID: "t1", ScorePercent: 100}
	result, err := EngineResult(record)
	if err != nil {
		t.Fatalf("EngineResult err = %v", err)
	}
	if result.SectionAccuracy != nil || result.TopicWeaknesses != nil || result.Answers != nil {
		t.Errorf("empty JSON fields should stay nil, got %+v", result)
	}
}

func TestEngineResultBadJSON(t *testing.T) {
	record := &model.TestResult{
		TestID:          "t1",
		SectionAccuracy: json.RawMessage(`broken`),
	}
	if _, err := EngineResult(record); err == nil {
		t.Fatal("EngineResult err = nil, want error for broken JSON")
	}
}
