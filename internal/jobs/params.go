package jobs

// NotebookParameters builds the execution payload for a RunNotebook job
// that passes string parameters into the notebook's parameter cell.
func NotebookParameters(params map[string]string) map[string]any {
	typed := make(map[string]any, len(params))
	for name, value := range params {
		typed[name] = map[string]any{
			"value": value,
			"type":  "string",
		}
	}
	return map[string]any{
		"executionData": map[string]any{
			"parameters": typed,
		},
	}
}

// TableMaintenancePayload builds the execution payload for a
// TableMaintenance job: optimize with v-order plus a vacuum with the
// platform's 7-day minimum retention.
func TableMaintenancePayload(tableName string) map[string]any {
	return map[string]any{
		"executionData": map[string]any{
			"tableName": tableName,
			"optimizeSettings": map[string]any{
				"vOrder": "true",
			},
			"vacuumSettings": map[string]any{
				"retentionPeriod": "7.01:00:00",
			},
		},
	}
}
