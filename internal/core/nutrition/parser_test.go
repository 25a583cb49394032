package nutrition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResponse_FencedBlockKeepsProseSeparate(t *testing.T) {
	body := `{"dishName":"Salad","calories":220,"macros":{"protein":5,"carbs":10,"fat":18},"ingredients":[]}`
	preambles := []string{
		"Here is the analysis:",
		"Sure! 🥗 This looks like a salad { not json",
		"",
		"Line one\nLine two",
	}

	for _, prose := range preambles {
		raw := prose + "\n```json\n" + body + "\n```\nEnjoy your meal!"
		parsed, err := ParseResponse(raw, RecordFields...)
		require.NoError(t, err, prose)

		assert.Equal(t, body, parsed.JSON)
		assert.NotContains(t, parsed.Preamble, "dishName")
		assert.NotContains(t, parsed.Preamble, "Enjoy")
		assert.NotContains(t, parsed.JSON, "Enjoy")
		assert.NotContains(t, parsed.Preamble, "```")
	}
}

func TestParseResponse_PreambleEndsAtMatchedFence(t *testing.T) {
	body := `{"dishName":"Soup","calories":90,"macros":{"protein":3,"carbs":12,"fat":2},"ingredients":[]}`
	raw := "Intro\n```\nnot json here\n```\nThen the data:\n```json\n" + body + "\n```"

	parsed, err := ParseResponse(raw, RecordFields...)
	require.NoError(t, err)
	assert.Equal(t, body, parsed.JSON)
	assert.Contains(t, parsed.Preamble, "Intro")
	assert.Contains(t, parsed.Preamble, "not json here")
	assert.Contains(t, parsed.Preamble, "Then the data:")
	assert.NotContains(t, parsed.Preamble, "```")
	assert.NotContains(t, parsed.Preamble, "dishName")
}

func TestParseResponse_FenceWithoutLanguage(t *testing.T) {
	raw := "Intro\n```\n{\"days\": []}\n```"
	parsed, err := ParseResponse(raw, MealPlanFields...)
	require.NoError(t, err)
	assert.Equal(t, "Intro", parsed.Preamble)
	assert.Equal(t, `{"days": []}`, parsed.JSON)
}

func TestParseResponse_BareObject(t *testing.T) {
	raw := `Your plan for the week: {"days": [{"day": "Monday"}]} Have fun`
	parsed, err := ParseResponse(raw, "days")
	require.NoError(t, err)
	assert.Equal(t, "Your plan for the week:", parsed.Preamble)
	assert.Equal(t, `{"days": [{"day": "Monday"}]}`, parsed.JSON)
}

func TestParseResponse_Malformed(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		required []string
	}{
		{"plain_prose", "This is a grilled chicken salad with about 350 calories.", RecordFields},
		{"empty", "", nil},
		{"broken_json", `{"dishName": "x", "calories": }`, nil},
		{"missing_field", `{"dishName": "x", "calories": 1, "macros": {}}`, RecordFields},
		{"null_object", "```json\nnull\n```", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseResponse(tt.raw, tt.required...)
			require.Error(t, err)
			assert.True(t, IsMalformed(err))

			var m *MalformedResponseError
			require.ErrorAs(t, err, &m)
			assert.Equal(t, tt.raw, m.Raw)
		})
	}
}

func TestParseResponse_PresenceNotTruthiness(t *testing.T) {
	raw := `{"dishName": "", "calories": 0, "macros": {"protein": 0, "carbs": 0, "fat": 0}, "ingredients": []}`
	_, err := ParseResponse(raw, RecordFields...)
	assert.NoError(t, err)
}

func TestParseResponse_RelaxedJSON(t *testing.T) {
	raw := "{dishName: “Toast”, calories: 120, macros: {protein: 4, carbs: 20, fat: 2,}, ingredients: [],}"
	parsed, err := ParseResponse(raw, RecordFields...)
	require.NoError(t, err)
	assert.Equal(t, "Toast", parsed.Object["dishName"])
}

func TestParsed_Decode(t *testing.T) {
	raw := `{"days":[{"day":"Monday","meals":{"breakfast":{"name":"Oats","calories":400,"macros":{"protein":"20g","carbs":35,"fat":"15-20g"},"imageDescription":"Bowl of oats"}}}]}`
	parsed, err := ParseResponse(raw, MealPlanFields...)
	require.NoError(t, err)

	var plan MealPlan
	require.NoError(t, parsed.Decode(&plan))
	require.Len(t, plan.Days, 1)

	breakfast := plan.Days[0].Meals.Breakfast
	assert.Equal(t, FlexString("400"), breakfast.Calories)
	assert.Equal(t, FlexString("35"), breakfast.Macros.Carbs)
	assert.Equal(t, FlexString("20g"), breakfast.Macros.Protein)
	assert.Equal(t, "Bowl of oats", breakfast.ImageDescription)
}

func TestCleanProse(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Drink water.", "Drink water."},
		{"Tips:\n```json\n{\"a\":1}\n```\nStay active.", "Tips:\n\nStay active."},
		{"stray ``` fence", "stray  fence"},
		{"  ```\ncode\n```  ", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanProse(tt.raw))
	}
}
