package glossary

func position(p int) *int { return &p }

// DefaultCategories returns the built-in statuses and priorities. Markers
// follow the common markdown checkbox and task-emoji conventions; aliases
// cover English, Chinese, German and Spanish.
func DefaultCategories() []Category {
	return []Category{
		{
			Key:         "in-progress",
			Kind:        KindStatus,
			DisplayName: "In Progress",
			Aliases:     []string{"in progress", "in-progress", "doing", "wip", "started", "进行中", "in bearbeitung", "en progreso"},
			Markers:     []string{"/"},
			Weight:      1.0,
			Position:    position(10),
		},
		{
			Key:         "open",
			Kind:        KindStatus,
			DisplayName: "Todo",
			Aliases:     []string{"todo", "to do", "open", "pending", "not started", "未完成", "待办", "offen", "pendiente"},
			Markers:     []string{" "},
			Weight:      0.8,
			Position:    position(20),
		},
		{
			Key:         "completed",
			Kind:        KindStatus,
			DisplayName: "Done",
			Aliases:     []string{"done", "completed", "complete", "finished", "已完成", "erledigt", "hecho", "completado"},
			Markers:     []string{"x", "X"},
			Weight:      0.2,
			Position:    position(30),
		},
		{
			Key:         "cancelled",
			Kind:        KindStatus,
			DisplayName: "Cancelled",
			Aliases:     []string{"cancelled", "canceled", "dropped", "已取消", "abgebrochen", "cancelado"},
			Markers:     []string{"-"},
			Weight:      0.1,
			Position:    position(40),
		},
		{
			Key:         "p1",
			Kind:        KindPriority,
			DisplayName: "High",
			Aliases:     []string{"high", "highest", "urgent", "critical", "高优先级", "紧急", "hoch", "dringend", "alta", "urgente"},
			Markers:     []string{"🔺", "⏫"},
			Weight:      1.0,
			Level:       1,
		},
		{
			Key:         "p2",
			Kind:        KindPriority,
			DisplayName: "Medium",
			Aliases:     []string{"medium", "normal", "中优先级", "mittel", "media"},
			Markers:     []string{"🔼"},
			Weight:      0.75,
			Level:       2,
		},
		{
			Key:         "p3",
			Kind:        KindPriority,
			DisplayName: "Low",
			Aliases:     []string{"low", "低优先级", "niedrig", "baja"},
			Markers:     []string{"🔽"},
			Weight:      0.5,
			Level:       3,
		},
		{
			Key:         "p4",
			Kind:        KindPriority,
			DisplayName: "Lowest",
			Aliases:     []string{"lowest", "someday", "最低优先级", "niedrigste", "mínima"},
			Markers:     []string{"⏬"},
			Weight:      0.2,
			Level:       4,
		},
	}
}

// Default returns a glossary built from DefaultCategories.
func Default() *Glossary {
	return New(DefaultCategories())
}
