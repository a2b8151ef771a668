package usecase

import "github.com/omnilodge/concierge/adapters/live"

// Tool names form a closed vocabulary. The remote agent dispatches by
// string name, so these must stay stable across releases.
const (
	ToolCheckAvailability = "check_availability"
	ToolFinalizeBooking   = "finalize_booking"
	ToolCancelBooking     = "cancel_booking"
	ToolListBookings      = "list_bookings"
)

// Toolset selects which tools are declared to the agent. The basic set
// is a legitimate reduced configuration, not a separate contract.
type Toolset string

const (
	ToolsetFull  Toolset = "full"
	ToolsetBasic Toolset = "basic"
)

// DeclaredTools returns the tool schemas announced at session setup.
func DeclaredTools(set Toolset) []live.Tool {
	tools := []live.Tool{
		{
			Name:        ToolCheckAvailability,
			Description: "Check room availability and price a stay. Dates are YYYY-MM-DD.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"room_type":      map[string]any{"type": "string", "description": "Requested room type, free text"},
					"check_in_date":  map[string]any{"type": "string", "description": "Check-in date, YYYY-MM-DD"},
					"check_out_date": map[string]any{"type": "string", "description": "Check-out date, YYYY-MM-DD"},
					"guests":         map[string]any{"type": "integer", "description": "Number of guests"},
				},
				"required": []string{"room_type", "check_in_date", "check_out_date"},
			},
		},
		{
			Name:        ToolFinalizeBooking,
			Description: "Finalize the reservation once the guest has confirmed all details.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":           map[string]any{"type": "string", "description": "Guest full name"},
					"phone":          map[string]any{"type": "string", "description": "Guest phone number"},
					"room_type":      map[string]any{"type": "string"},
					"check_in_date":  map[string]any{"type": "string"},
					"check_out_date": map[string]any{"type": "string"},
					"total_cost":     map[string]any{"type": "number", "description": "Quoted total, if already priced"},
				},
				"required": []string{"name", "phone", "room_type", "check_in_date", "check_out_date"},
			},
		},
		{
			Name:        ToolCancelBooking,
			Description: "Cancel an existing reservation by confirmation code.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"confirmation_code": map[string]any{"type": "string", "description": "Code like OMNI-XXXXX"},
				},
				"required": []string{"confirmation_code"},
			},
		},
	}

	if set != ToolsetBasic {
		tools = append(tools, live.Tool{
			Name:        ToolListBookings,
			Description: "List the guest's current reservations.",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		})
	}

	return tools
}
