package handler

import (
	"fmt"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/cpike5/discordbot-sub005/internal/generator"
)

// FlowContext carries per-instance state across the steps of one flow.
type FlowContext struct {
	InstanceID string
	State      map[string]any
}

// Node is one step of a flow. Matcher decides whether an interaction belongs
// to this step; Handler runs it.
type Node struct {
	ID      string
	Matcher func(*discordgo.InteractionCreate) bool
	Handler func(DiscordSession, *discordgo.InteractionCreate, *FlowContext) error
	Next    []*Node
}

// Flow is a multi-step interaction, such as a select menu followed by a
// confirmation. The Root node starts a new instance.
type Flow struct {
	ID   string
	Root *Node
}

type flowSession struct {
	flow *Flow
	node *Node
	ctx  *FlowContext
}

// FlowManager routes interactions either to a live flow instance (matched by
// the instance ID embedded in the component custom ID) or to the first flow
// whose root matches.
type FlowManager struct {
	flowsMu sync.RWMutex
	flows   map[string]*Flow

	sessionsMu sync.RWMutex
	sessions   map[string]*flowSession

	idGenerator generator.Generator[string]
}

func NewFlowManager(idGenerator generator.Generator[string]) *FlowManager {
	if idGenerator == nil {
		idGenerator = &generator.UUIDV4Generator{}
	}
	return &FlowManager{
		flows:       make(map[string]*Flow),
		sessions:    make(map[string]*flowSession),
		idGenerator: idGenerator,
	}
}

func (fm *FlowManager) RegisterFlow(flow *Flow) {
	fm.flowsMu.Lock()
	defer fm.flowsMu.Unlock()

	if _, exists := fm.flows[flow.ID]; exists {
		panic("flow already registered")
	}
	fm.flows[flow.ID] = flow
}

// Router dispatches one interaction. It returns nil when no flow matches.
func (fm *FlowManager) Router(s DiscordSession, i *discordgo.InteractionCreate) error {
	instanceID := InstanceIDFromInteraction(i)
	if instanceID != "" {
		fm.sessionsMu.RLock()
		sess, inFlow := fm.sessions[instanceID]
		fm.sessionsMu.RUnlock()
		if inFlow {
			return fm.advance(s, i, sess)
		}
	}

	return fm.initializeFlow(s, i)
}

func (fm *FlowManager) advance(s DiscordSession, i *discordgo.InteractionCreate, sess *flowSession) error {
	finishFlow := func() {
		fm.sessionsMu.Lock()
		delete(fm.sessions, sess.ctx.InstanceID)
		fm.sessionsMu.Unlock()
	}

	if len(sess.node.Next) == 0 {
		finishFlow()
		return nil
	}

	var nextNode *Node
	for _, n := range sess.node.Next {
		if n.Matcher(i) {
			nextNode = n
			break
		}
	}
	if nextNode == nil {
		return nil
	}

	sess.node = nextNode
	if err := sess.node.Handler(s, i, sess.ctx); err != nil {
		return err
	}

	if len(nextNode.Next) == 0 {
		finishFlow()
	}
	return nil
}

func (fm *FlowManager) initializeFlow(s DiscordSession, i *discordgo.InteractionCreate) error {
	fm.flowsMu.RLock()
	var f *Flow
	for _, flow := range fm.flows {
		if flow.Root.Matcher(i) {
			f = flow
			break
		}
	}
	fm.flowsMu.RUnlock()
	if f == nil {
		return nil
	}

	instanceID, err := fm.idGenerator.Next()
	if err != nil {
		return fmt.Errorf("failed to generate instance ID: %w", err)
	}

	sess := &flowSession{
		flow: f,
		node: f.Root,
		ctx: &FlowContext{
			InstanceID: instanceID,
			State:      make(map[string]any),
		},
	}

	fm.sessionsMu.Lock()
	fm.sessions[instanceID] = sess
	fm.sessionsMu.Unlock()

	return sess.node.Handler(s, i, sess.ctx)
}

// CustomID builds a component custom ID that routes follow-up interactions
// back to the flow instance.
func CustomID(componentID, instanceID string) string {
	return componentID + ":" + instanceID
}

func InstanceIDFromInteraction(i *discordgo.InteractionCreate) string {
	var customID string
	switch i.Type {
	case discordgo.InteractionMessageComponent:
		customID = i.MessageComponentData().CustomID
	case discordgo.InteractionModalSubmit:
		customID = i.ModalSubmitData().CustomID
	default:
		return ""
	}
	return InstanceIDFromCustomID(customID)
}

func InstanceIDFromCustomID(customID string) string {
	parts := strings.SplitN(customID, ":", 2)
	if len(parts) != 2 {
		return ""
	}
	return parts[1]
}
