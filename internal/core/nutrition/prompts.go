package nutrition

import (
	"fmt"
	"strings"
)

const recordSchema = `{
  "dishName": "Name of the dish",
  "calories": number,
  "macros": {
    "protein": number,
    "carbs": number,
    "fat": number
  },
  "ingredients": [
    {
      "name": "Ingredient name",
      "amount": "Amount with unit (e.g., 120g, 1 cup)",
      "protein": number,
      "carbs": number,
      "fat": number
    }
  ]
}`

// dishSystemPrompt 圖片辨識（identify-dish / scan-meal）系統提示詞
var dishSystemPrompt = `You are a nutrition expert capable of identifying food dishes from images and providing detailed nutritional information.
When presented with a food image, identify the dish name, estimate its caloric content (kcal), and provide a breakdown of macronutrients (protein, carbs, fat) along with ingredients.
Format your response as valid JSON with the following structure:
` + recordSchema + `
Be as accurate as possible with the estimates, but ensure your response is valid JSON.`

const (
	scanMealUserPrompt     = "Identify this dish and provide its nutritional information:"
	identifyDishUserPrompt = "What dish is shown in this image? Identify the dish and provide its nutritional information:"
)

const chatSystemPrompt = "You are a helpful fitness assistant. Provide concise, accurate information about fitness, nutrition, and health topics."

const weekPlanSystemPrompt = "You are a nutrition expert. Create a 5-day meal plan (Monday through Friday) with breakfast, lunch, and dinner for each day. Format the response as a structured meal plan object."

// dayPlanSystemPrompt 指定日期的餐點計畫系統提示詞
func dayPlanSystemPrompt(days []string) string {
	return fmt.Sprintf("You are a nutrition expert. Create a meal plan for %s with breakfast, lunch, and dinner. Format the response as a structured meal plan object.",
		strings.Join(days, ", "))
}

// dayTemplate 單日 JSON 範本
func dayTemplate(day string) string {
	return fmt.Sprintf(`{
      "day": %q,
      "meals": {
        "breakfast": {
          "name": "Meal description",
          "calories": "350-450",
          "macros": {
            "protein": "20-25g",
            "carbs": "30-40g",
            "fat": "15-20g"
          },
          "imageDescription": "A brief description of what the meal looks like, e.g., 'Bowl of oatmeal with berries and nuts'"
        },
        "lunch": {
          "name": "Meal description",
          "calories": "500-650",
          "macros": {
            "protein": "25-35g",
            "carbs": "40-60g",
            "fat": "15-25g"
          },
          "imageDescription": "A brief description of what the meal looks like"
        },
        "dinner": {
          "name": "Meal description",
          "calories": "450-600",
          "macros": {
            "protein": "30-40g",
            "carbs": "30-50g",
            "fat": "15-25g"
          },
          "imageDescription": "A brief description of what the meal looks like"
        }
      }
    }`, day)
}

// mealPlanFormatInstructions 餐點計畫格式說明；未指定日期時給週一範本並要求延伸至週五
func mealPlanFormatInstructions(days []string) string {
	var entries string
	if len(days) > 0 {
		parts := make([]string, len(days))
		for i, day := range days {
			parts[i] = dayTemplate(day)
		}
		entries = strings.Join(parts, ",\n    ")
	} else {
		entries = dayTemplate("Monday") + ",\n    ... (repeat for Tuesday through Friday)"
	}

	return `Format your response in two parts:
1. A brief text introduction to the meal plan
2. A JSON object in the following structure (I'll parse this later):
{
  "days": [
    ` + entries + `
  ]
}
Only include the raw JSON object after your introduction, no markdown formatting or code blocks.`
}

const searchSystemPrompt = `You are a nutrition database API. Respond with nutritional information for foods matching the user's query.

Your response must be valid JSON with this exact structure:
{
  "results": [
    {
      "name": "Food name",
      "calories": 100,
      "macros": {
        "protein": 10,
        "carbs": 10,
        "fat": 5
      },
      "servingSize": "100g",
      "brand": "Brand name (optional)"
    }
  ]
}

Guidelines:
- Return up to 5 most relevant food items
- Make sure macros are in grams and calories are per serving
- Include common brand names when appropriate
- Provide realistic nutritional values based on food databases
- Make sure servingSize is in a standard format (e.g., "100g", "1 cup")
- For common foods, include both generic and branded versions`

func searchUserPrompt(query string) string {
	return "Search for: " + query
}

const extractionSystemPrompt = `You are a professional nutrition database system. Extract the food items from the user's description
and provide detailed nutritional information in a structured JSON format.

For each food item mentioned, include:
1. name: The name of the food item
2. amount: A reasonable serving size (default to "100g" if unsure)
3. protein: Protein content in grams
4. carbs: Carbohydrate content in grams
5. fat: Fat content in grams

Also calculate the total calories and macronutrients for the entire meal.

IMPORTANT: Return ONLY valid JSON with this structure without any explanation or markdown formatting:
{
  "dishName": "Name for the overall meal",
  "calories": totalCalories,
  "macros": {
    "protein": totalProteinInGrams,
    "carbs": totalCarbsInGrams,
    "fat": totalFatInGrams
  },
  "ingredients": [
    {
      "name": "Ingredient Name",
      "amount": "100g",
      "protein": proteinInGrams,
      "carbs": carbsInGrams,
      "fat": fatInGrams
    },
    ...more ingredients
  ]
}

Remember to respond ONLY with the JSON, no additional text or markdown.`

func extractionUserPrompt(text string) string {
	return fmt.Sprintf("Extract detailed nutritional information from this food description: \"%s\"", text)
}

const repairSystemPrompt = `Convert the following nutrition information into valid JSON following this structure exactly: {"dishName": string, "calories": number, "macros": {"protein": number, "carbs": number, "fat": number}, "ingredients": [{"name": string, "amount": string, "protein": number, "carbs": number, "fat": number}, ...]}`

func coachPrompt(text string) string {
	return fmt.Sprintf("You are a professional nutrition coach. Please analyze and provide nutritional information for this food: \"%s\". Include calories and macronutrients if possible.", text)
}

// MealImagePrompt 餐點圖片生成提示詞
func MealImagePrompt(description string) string {
	return fmt.Sprintf("A beautiful, appetizing photo of %s. Food photography style, well-lit, professional quality, realistic, detailed.", description)
}
