package template

import (
	"testing"

	"github.com/lordgreg/taskcrafter/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestBuildContextIncludesJobMetadata(t *testing.T) {
	job := model.NewJob()
	job.ID = "build"
	job.Name = "Build"
	job.Plugin = "echo"
	job.Params["message"] = "hi"
	job.Input["path"] = "/tmp/x"

	ctx := BuildContext(job)
	assert.Equal(t, "build", ctx["job_id"])
	assert.Equal(t, "Build", ctx["job_name"])
	assert.Equal(t, "echo", ctx["job_plugin"])
	assert.Equal(t, "hi", ctx["job_params_message"])
	assert.Equal(t, "/tmp/x", ctx["job_input_path"])
	assert.NotEmpty(t, ctx["current_time"])
	assert.NotEmpty(t, ctx["hostname"])
}

func TestApplySubstitutesStringLeaf(t *testing.T) {
	ctx := map[string]string{"job_id": "build"}
	out := Apply("running ${JOB_ID}", ctx)
	assert.Equal(t, "running build", out)
}

func TestApplyRecursesThroughMapsAndSlices(t *testing.T) {
	ctx := map[string]string{"job_id": "build", "job_name": "Build"}
	input := map[string]any{
		"name": "${JOB_NAME}",
		"tags": []any{"${JOB_ID}", "static"},
		"nested": map[string]any{
			"id": "${JOB_ID}",
		},
	}

	out := Apply(input, ctx).(map[string]any)
	assert.Equal(t, "Build", out["name"])
	assert.Equal(t, []any{"build", "static"}, out["tags"])
	assert.Equal(t, "build", out["nested"].(map[string]any)["id"])
}

func TestApplyLeavesNonStringLeavesUnchanged(t *testing.T) {
	ctx := map[string]string{"job_id": "build"}
	assert.Equal(t, 42, Apply(42, ctx))
	assert.Equal(t, true, Apply(true, ctx))
	assert.Nil(t, Apply(nil, ctx))
}

func TestApplyLeavesUnknownPlaceholderUntouched(t *testing.T) {
	ctx := map[string]string{"job_id": "build"}
	out := Apply("${UNKNOWN_KEY}", ctx)
	assert.Equal(t, "${UNKNOWN_KEY}", out)
}
