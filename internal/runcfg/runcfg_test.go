package runcfg

import (
	"reflect"
	"testing"
)

func TestArgsRendering(t *testing.T) {
	c := New(
		Param{"dataset", "mnist"},
		Param{"net", "cnn_7layer_bn"},
		Param{"train-eps", 0.2},
		Param{"test-eps", 0.1},
		Param{"restarts", 3},
	)

	want := []string{
		"--dataset", "mnist",
		"--net", "cnn_7layer_bn",
		"--train-eps", "0.2",
		"--test-eps", "0.1",
		"--restarts", "3",
	}
	if got := c.Args(); !reflect.DeepEqual(got, want) {
		t.Errorf("Args() = %v\nwant %v", got, want)
	}
}

func TestArgsDeterministic(t *testing.T) {
	c := New(
		Param{"dataset", "cifar10"},
		Param{"lr", 0.0005},
		Param{"use-ibp-training", true},
		Param{"lr-milestones", []int{120, 140}},
	)

	first := c.Args()
	for i := 0; i < 10; i++ {
		if got := c.Args(); !reflect.DeepEqual(got, first) {
			t.Fatalf("render %d differs: %v vs %v", i, got, first)
		}
	}
}

func TestSwitchRendering(t *testing.T) {
	c := New(
		Param{"dataset", "mnist"},
		Param{"use-ibp-training", true},
		Param{"use-small-box", false},
	)

	got := c.Args()
	want := []string{"--dataset", "mnist", "--use-ibp-training"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Args() = %v, want %v", got, want)
	}
	for _, a := range got {
		if a == "true" || a == "false" {
			t.Errorf("switch rendered as literal value: %v", got)
		}
	}
}

func TestListRendering(t *testing.T) {
	c := New(
		Param{"lr-milestones", []int{50, 60}},
		Param{"block-sizes", []int{4, 1}},
		Param{"stages", []string{"warmup", "ramp"}},
	)

	want := []string{
		"--lr-milestones", "50", "60",
		"--block-sizes", "4", "1",
		"--stages", "warmup", "ramp",
	}
	if got := c.Args(); !reflect.DeepEqual(got, want) {
		t.Errorf("Args() = %v, want %v", got, want)
	}
}

func TestOmittedParameterAbsent(t *testing.T) {
	c := New(Param{"dataset", "mnist"})
	for _, a := range c.Args() {
		if a == "--restarts" {
			t.Error("unset parameter leaked into argv")
		}
	}
}

func TestSetPreservesPosition(t *testing.T) {
	c := New(
		Param{"dataset", "mnist"},
		Param{"train-eps", 0.4},
		Param{"restarts", 1},
	)
	c.Set("train-eps", 0.2)

	want := []string{"--dataset", "mnist", "--train-eps", "0.2", "--restarts", "1"}
	if got := c.Args(); !reflect.DeepEqual(got, want) {
		t.Errorf("Args() after Set = %v, want %v", got, want)
	}
}

func TestSetAppendsNew(t *testing.T) {
	c := New(Param{"dataset", "mnist"})
	c.Set("tag", "baseline")

	if got := c.Args(); !reflect.DeepEqual(got, []string{"--dataset", "mnist", "--tag", "baseline"}) {
		t.Errorf("Args() = %v", got)
	}
}

func TestDelete(t *testing.T) {
	c := New(Param{"dataset", "mnist"}, Param{"restarts", 3})
	c.Delete("restarts")

	if _, ok := c.Get("restarts"); ok {
		t.Error("deleted parameter still present")
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}

	c.Delete("never-existed")
	if c.Len() != 1 {
		t.Error("deleting an absent parameter changed the config")
	}
}

func TestCloneIndependence(t *testing.T) {
	c := New(Param{"lr-milestones", []int{50, 60}}, Param{"dataset", "mnist"})
	clone := c.Clone()

	clone.Set("dataset", "cifar10")
	cloneMilestones, _ := clone.Get("lr-milestones")
	cloneMilestones.([]int)[0] = 999

	if c.GetString("dataset") != "mnist" {
		t.Error("clone scalar mutation reached original")
	}
	ms, _ := c.Get("lr-milestones")
	if ms.([]int)[0] != 50 {
		t.Error("clone slice mutation reached original")
	}
}

func TestSetAllSortedAndNormalized(t *testing.T) {
	var c Config
	err := c.SetAll(map[string]any{
		"train-eps":     0.4,
		"dataset":       "mnist",
		"lr-milestones": []any{50, 60},
		"n-epochs":      int64(70),
	})
	if err != nil {
		t.Fatalf("SetAll: %v", err)
	}

	// New parameters appear in sorted key order
	want := []string{"dataset", "lr-milestones", "n-epochs", "train-eps"}
	if got := c.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}

	if v, _ := c.Get("n-epochs"); v != 70 {
		t.Errorf("int64 not normalized to int: %v (%T)", v, v)
	}
	if v, _ := c.Get("lr-milestones"); !reflect.DeepEqual(v, []int{50, 60}) {
		t.Errorf("[]any not normalized to []int: %v (%T)", v, v)
	}
}

func TestSetAllRejectsUnsupported(t *testing.T) {
	var c Config
	if err := c.SetAll(map[string]any{"bad": map[string]any{"nested": 1}}); err == nil {
		t.Error("nested map should be rejected")
	}
	if err := c.SetAll(map[string]any{"bad": nil}); err == nil {
		t.Error("null value should be rejected")
	}
}

func TestParseOverride(t *testing.T) {
	tests := []struct {
		in      string
		name    string
		value   any
		wantErr bool
	}{
		{"dataset=cifar10", "dataset", "cifar10", false},
		{"restarts=3", "restarts", 3, false},
		{"train-eps=0.2", "train-eps", 0.2, false},
		{"use-small-box=true", "use-small-box", true, false},
		{"use-pop-stats=false", "use-pop-stats", false, false},
		{"lr-milestones=50 60", "lr-milestones", []int{50, 60}, false},
		{"stages=warmup ramp", "stages", []string{"warmup", "ramp"}, false},
		{"restarts=", "restarts", nil, false},
		{"no-equals", "", nil, true},
		{"=value", "", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			name, value, err := ParseOverride(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if name != tt.name {
				t.Errorf("name = %q, want %q", name, tt.name)
			}
			if !reflect.DeepEqual(value, tt.value) {
				t.Errorf("value = %v (%T), want %v (%T)", value, value, tt.value, tt.value)
			}
		})
	}
}

func TestOverrideEmptyValueDeletes(t *testing.T) {
	c := New(Param{"dataset", "mnist"}, Param{"restarts", 3})

	name, value, err := ParseOverride("restarts=")
	if err != nil {
		t.Fatalf("ParseOverride: %v", err)
	}
	if value == nil {
		c.Delete(name)
	}
	if _, ok := c.Get("restarts"); ok {
		t.Error("empty override did not delete the parameter")
	}
}

func TestFloatPrecision(t *testing.T) {
	c := New(Param{"train-eps", 0.00784313725})
	got := c.Args()
	if got[1] != "0.00784313725" {
		t.Errorf("float rendered as %q, want full precision", got[1])
	}
}
