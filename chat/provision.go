package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Dzamal6/AMS-API/core"
	"github.com/Dzamal6/AMS-API/provider"
)

// Provision ensures a live remote agent exists for the given definition
// within this conversation and returns its handle.
//
// When the tracker's current handle already belongs to the definition it is
// returned unchanged; no remote call is made. Otherwise the definition's
// documents are fetched from object storage and uploaded, the conversation's
// retrieval index is extended (or created on first use) and the remote agent
// is created with the hand-off tool declared when the definition names a
// successor.
//
// Provisioning is atomic from the caller's perspective: on any failure every
// remote resource created during this call is deleted again and the tracker
// is left untouched.
func (s *Service) Provision(ctx context.Context, agentID uuid.UUID, tracker *core.Tracker) (core.RemoteAgentHandle, error) {
	if current := tracker.Current(); current != nil && current.AgentID == agentID {
		s.logger.Debug("reusing live agent", "agent_id", agentID, "remote_id", current.RemoteID)
		return *current, nil
	}

	agent, err := s.repo.GetAgent(ctx, agentID)
	if err != nil {
		return core.RemoteAgentHandle{}, fmt.Errorf("load agent definition %s: %w", agentID, err)
	}

	start := time.Now()
	var created createdResources
	handle, err := s.provisionRemote(ctx, agent, tracker, &created)
	if err != nil {
		s.rollback(ctx, &created)
		return core.RemoteAgentHandle{}, err
	}

	tracker.SetCurrent(handle)
	s.logger.Info("provisioned agent", "agent_id", agentID, "remote_id", handle.RemoteID,
		"files", len(handle.FileIDs), "elapsed", time.Since(start))
	return handle, nil
}

// createdResources collects remote ids made during one provisioning attempt
// so a failure can undo them.
type createdResources struct {
	fileIDs       []string
	vectorStoreID string
	agentID       string
}

func (s *Service) provisionRemote(ctx context.Context, agent *core.AgentDefinition, tracker *core.Tracker, created *createdResources) (core.RemoteAgentHandle, error) {
	var fileIDs []string
	vectorStoreID := tracker.VectorStoreID()

	docs, err := s.repo.ListAgentDocuments(ctx, agent.ID)
	if err != nil {
		return core.RemoteAgentHandle{}, fmt.Errorf("list agent documents: %w", err)
	}
	for _, doc := range docs {
		content, err := s.objects.Get(ctx, doc.StorageKey)
		if err != nil {
			return core.RemoteAgentHandle{}, fmt.Errorf("fetch document %s: %w", doc.ID, err)
		}
		fileID, err := s.provider.UploadFile(ctx, doc.Name, content)
		if err != nil {
			return core.RemoteAgentHandle{}, err
		}
		created.fileIDs = append(created.fileIDs, fileID)
		fileIDs = append(fileIDs, fileID)
	}

	if len(fileIDs) > 0 {
		if vectorStoreID != "" {
			if err := s.provider.AddVectorStoreFiles(ctx, vectorStoreID, fileIDs); err != nil {
				return core.RemoteAgentHandle{}, err
			}
		} else {
			vectorStoreID, err = s.provider.CreateVectorStore(ctx, fmt.Sprintf("conversation-%s", tracker.SessionID()), fileIDs)
			if err != nil {
				return core.RemoteAgentHandle{}, err
			}
			created.vectorStoreID = vectorStoreID
		}
	}

	spec := provider.AgentSpec{
		Name:           agent.Name,
		Instructions:   agent.Instructions,
		Model:          agent.Model,
		DeclareHandoff: agent.HasSuccessor() && agent.SwitchFlag == "",
	}
	if len(fileIDs) > 0 {
		spec.VectorStoreID = vectorStoreID
	}
	remoteID, err := s.provider.CreateAgent(ctx, spec)
	if err != nil {
		return core.RemoteAgentHandle{}, err
	}
	created.agentID = remoteID

	handle := core.RemoteAgentHandle{
		AgentID:  agent.ID,
		RemoteID: remoteID,
		FileIDs:  fileIDs,
	}
	if len(fileIDs) > 0 {
		handle.VectorStoreID = vectorStoreID
	}
	return handle, nil
}

// rollback deletes remote resources created during a failed provisioning
// attempt. Failures here are logged, not returned; the original error wins.
func (s *Service) rollback(ctx context.Context, created *createdResources) {
	if created.agentID != "" {
		if err := s.provider.DeleteAgent(ctx, created.agentID); err != nil {
			s.logger.Warn("rollback: delete agent failed", "remote_id", created.agentID, "error", err)
		}
	}
	if created.vectorStoreID != "" {
		if err := s.provider.DeleteVectorStore(ctx, created.vectorStoreID); err != nil {
			s.logger.Warn("rollback: delete vector store failed", "vector_store_id", created.vectorStoreID, "error", err)
		}
	}
	for _, fileID := range created.fileIDs {
		if err := s.provider.DeleteFile(ctx, fileID); err != nil {
			s.logger.Warn("rollback: delete file failed", "file_id", fileID, "error", err)
		}
	}
}
