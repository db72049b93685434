package service

import (
	"encoding/json"
	"testing"

	"exam_prep_backend/internal/exam"
	"exam_prep_backend/internal/model"
)

func TestParseImportRow(t *testing.T) {
	tests := []struct {
		name       string
		row        []string
		wantErr    bool
		wantKind   string
		wantOption *int
		wantText   string
		wantRem    bool
	}{
		{
			name:       "选项下标键",
			row:        []string{"single_choice", "2+2=?", "3|4|5", "1", "Math", ""},
			wantKind:   "single_choice",
			wantOption: intPtr(1),
		},
		{
			name:     "字符串键",
			row:      []string{"single_choice", "首都是?", "", "北京", "Geo", ""},
			wantKind: "single_choice",
			wantText: "北京",
		},
		{
			name:     "补救题标记",
			row:      []string{"true_false", "1>0", "对|错", "0", "Math", "yes"},
			wantKind: "true_false",
			wantRem:  true,
		},
		{
			name:     "主观题无答案",
			row:      []string{"subjective", "谈谈你的看法", "", "", "", ""},
			wantKind: "subjective",
		},
		{
			name:    "未知题型",
			row:     []string{"essay", "x", "", "", "", ""},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := parseImportRow(tt.row)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseImportRow(%v) err = nil, want error", tt.row)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseImportRow(%v) err = %v", tt.row, err)
			}
			if in.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", in.Kind, tt.wantKind)
			}
			if tt.wantOption != nil {
				if in.CorrectOption == nil || *in.CorrectOption != *tt.wantOption {
					t.Errorf("CorrectOption = %v, want %d", in.CorrectOption, *tt.wantOption)
				}
			}
			if in.CorrectText != tt.wantText {
				t.Errorf("CorrectText = %q, want %q", in.CorrectText, tt.wantText)
			}
			if in.Remedial != tt.wantRem {
				t.Errorf("Remedial = %v, want %v", in.Remedial, tt.wantRem)
			}
		})
	}
}

func intPtr(i int) *int { return &i }

func TestParseImportRowSplitsOptions(t *testing.T) {
	in, err := parseImportRow([]string{"single_choice", "q", "甲 | 乙|丙", "0", "", ""})
	if err != nil {
		t.Fatalf("parseImportRow err = %v", err)
	}
	want := []string{"甲", "乙", "丙"}
	if len(in.Options) != len(want) {
		t.Fatalf("len(Options) = %d, want %d", len(in.Options), len(want))
	}
	for i := range want {
		if in.Options[i] != want[i] {
			t.Errorf("Options[%d] = %q, want %q", i, in.Options[i], want[i])
		}
	}
}

func TestEngineQuestion(t *testing.T) {
	opt := 2
	row := &model.TestQuestion{
		Kind:          "single_choice",
		Prompt:        "选一个",
		Options:       json.RawMessage(`["a","b","c"]`),
		CorrectOption: &opt,
		Topic:         "Math",
	}
	row.ID = "q1"

	q, err := engineQuestion(row)
	if err != nil {
		t.Fatalf("engineQuestion err = %v", err)
	}
	if q.ID != "q1" || q.Kind != exam.KindSingleChoice || q.Topic != "Math" {
		t.Errorf("engineQuestion = %+v", q)
	}
	if len(q.Options) != 3 {
		t.Errorf("len(Options) = %d, want 3", len(q.Options))
	}
	if q.CorrectOption == nil || *q.CorrectOption != 2 {
		t.Errorf("CorrectOption = %v, want 2", q.CorrectOption)
	}
}

func TestEngineQuestionBadOptionsJSON(t *testing.T) {
	row := &model.TestQuestion{
		Kind:    "single_choice",
		Prompt:  "x",
		Options: json.RawMessage(`not-json`),
	}
	if _, err := engineQuestion(row); err == nil {
		t.Fatal("engineQuestion err = nil, want error for bad options JSON")
	}
}

func TestQuestionFromInputMarshalsOptions(t *testing.T) {
	in := &QuestionInput{
		Kind:    "true_false",
		Prompt:  "1>0",
		Options: []string{"对", "错"},
		Topic:   "Math",
	}
	q, err := questionFromInput("t1", in)
	if err != nil {
		t.Fatalf("questionFromInput err = %v", err)
	}
	if q.TestID != "t1" {
		t.Errorf("TestID = %q, want t1", q.TestID)
	}

	var opts []string
	if err := json.Unmarshal(q.Options, &opts); err != nil {
		t.Fatalf("Options not valid JSON: %v", err)
	}
	if len(opts) != 2 || opts[0] != "对" {
		t.Errorf("Options = %v", opts)
	}
}
