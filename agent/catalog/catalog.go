// Package catalog declares the closed set of administrative operations the
// assistant may call, as static schema descriptors. The catalog is the only
// wire contract between this core and the calling agent.
package catalog

import (
	openaisdk "github.com/openai/openai-go"
)

type ParamType string

const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
	TypeNumber  ParamType = "number"
	TypeBoolean ParamType = "boolean"
	TypeObject  ParamType = "object"
)

// Param describes one parameter of an operation: its JSON type, the admissible
// values when enum-constrained, and whether the caller must supply it.
type Param struct {
	Type     ParamType
	Desc     string
	Enum     []string
	Required bool
}

// Descriptor advertises one callable operation to the agent.
type Descriptor struct {
	Name   string
	Desc   string
	Params map[string]Param
}

const (
	OpDeleteUser           = "deleteUser"
	OpUpdateUser           = "updateUser"
	OpBanUser              = "banUser"
	OpUnbanUser            = "unbanUser"
	OpGrantSubscription    = "grantSubscription"
	OpBroadcastMessage     = "broadcastMessage"
	OpSendInboxMessage     = "sendInboxMessage"
	OpCreateWeeklyTest     = "createWeeklyTest"
	OpScanUsers            = "scanUsers"
	OpGetRecentLogs        = "getRecentLogs"
	OpUpdateSystemSettings = "updateSystemSettings"
)

var operations = []Descriptor{
	{
		Name: OpDeleteUser,
		Desc: "Permanently delete a user's durable record and live record from both stores.",
		Params: map[string]Param{
			"userId": {Type: TypeString, Desc: "ID of the user to delete", Required: true},
		},
	},
	{
		Name: OpUpdateUser,
		Desc: "Shallow-merge the supplied fields over the user's live record.",
		Params: map[string]Param{
			"userId":  {Type: TypeString, Desc: "ID of the user to update", Required: true},
			"updates": {Type: TypeObject, Desc: "Field name to new value mapping", Required: true},
		},
	},
	{
		Name: OpBanUser,
		Desc: "Lock a user's account so they can no longer sign in.",
		Params: map[string]Param{
			"userId": {Type: TypeString, Desc: "ID of the user to ban", Required: true},
			"reason": {Type: TypeString, Desc: "Why the user is being banned (logged only)"},
		},
	},
	{
		Name: OpUnbanUser,
		Desc: "Unlock a previously banned user's account.",
		Params: map[string]Param{
			"userId": {Type: TypeString, Desc: "ID of the user to unban", Required: true},
		},
	},
	{
		Name: OpGrantSubscription,
		Desc: "Grant a free administrative subscription to a user.",
		Params: map[string]Param{
			"userId": {Type: TypeString, Desc: "ID of the receiving user", Required: true},
			"plan":   {Type: TypeString, Desc: "Subscription duration plan", Enum: []string{"WEEKLY", "MONTHLY", "YEARLY", "LIFETIME"}, Required: true},
			"level":  {Type: TypeString, Desc: "Subscription feature level", Enum: []string{"BASIC", "PLUS", "PRO"}, Required: true},
		},
	},
	{
		Name: OpBroadcastMessage,
		Desc: "Publish a notice banner shown to every user.",
		Params: map[string]Param{
			"message":   {Type: TypeString, Desc: "Banner text to publish", Required: true},
			"type":      {Type: TypeString, Desc: "Broadcast kind", Enum: []string{"NOTICE", "GIFT"}},
			"giftValue": {Type: TypeNumber, Desc: "Credit value attached to a GIFT broadcast"},
		},
	},
	{
		Name: OpSendInboxMessage,
		Desc: "Deliver a text message to one user's inbox.",
		Params: map[string]Param{
			"userId": {Type: TypeString, Desc: "ID of the receiving user", Required: true},
			"text":   {Type: TypeString, Desc: "Message body", Required: true},
		},
	},
	{
		Name: OpCreateWeeklyTest,
		Desc: "Create a new weekly test shell; questions are added later by an editor.",
		Params: map[string]Param{
			"name":          {Type: TypeString, Desc: "Display name of the test", Required: true},
			"subject":       {Type: TypeString, Desc: "Subject the test covers", Required: true},
			"questionCount": {Type: TypeInteger, Desc: "Planned number of questions", Required: true},
		},
	},
	{
		Name: OpScanUsers,
		Desc: "List users matching a filter, projected to a redacted summary.",
		Params: map[string]Param{
			"filter": {Type: TypeString, Desc: "Which users to include", Enum: []string{"ALL", "PREMIUM", "FREE", "INACTIVE"}},
		},
	},
	{
		Name: OpGetRecentLogs,
		Desc: "Fetch the most recent AI interaction log entries, newest first.",
		Params: map[string]Param{
			"limit": {Type: TypeInteger, Desc: "Maximum entries to return (default 20)"},
		},
	},
	{
		Name: OpUpdateSystemSettings,
		Desc: "Shallow-merge the supplied fields over the global system settings.",
		Params: map[string]Param{
			"updates": {Type: TypeObject, Desc: "Field name to new value mapping", Required: true},
		},
	},
}

// Operations returns the static ordered operation list.
func Operations() []Descriptor {
	out := make([]Descriptor, len(operations))
	copy(out, operations)
	return out
}

// Lookup finds a descriptor by operation name.
func Lookup(name string) (Descriptor, bool) {
	for _, desc := range operations {
		if desc.Name == name {
			return desc, true
		}
	}
	return Descriptor{}, false
}

// ToOpenAI renders the descriptor as a chat-completion tool definition.
func (d Descriptor) ToOpenAI() openaisdk.ChatCompletionToolParam {
	properties := make(map[string]any, len(d.Params))
	required := make([]string, 0, len(d.Params))
	for name, p := range d.Params {
		prop := map[string]any{
			"type":        string(p.Type),
			"description": p.Desc,
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		properties[name] = prop
		if p.Required {
			required = append(required, name)
		}
	}

	return openaisdk.ChatCompletionToolParam{
		Function: openaisdk.FunctionDefinitionParam{
			Name:        d.Name,
			Description: openaisdk.String(d.Desc),
			Parameters: openaisdk.FunctionParameters{
				"type":       "object",
				"properties": properties,
				"required":   required,
			},
		},
	}
}

// Tools renders the whole catalog for advertisement to the model.
func Tools() []openaisdk.ChatCompletionToolParam {
	tools := make([]openaisdk.ChatCompletionToolParam, 0, len(operations))
	for _, desc := range operations {
		tools = append(tools, desc.ToOpenAI())
	}
	return tools
}
