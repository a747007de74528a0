package application

// Operator-facing encryption controls. These mutate only the in-process key
// table; persisting rotated keys across restarts is the operator's job and the
// vault logs a warning to that effect on every rotation.

func (s *Service) RotateEncryptionKey() (RotateKeyResponse, error) {
	version, err := s.vault.RotateKey()
	if err != nil {
		return RotateKeyResponse{}, err
	}
	s.logger.Info("encryption key rotated",
		"operation", "rotate_encryption_key",
		"outcome", "success",
		"new_version", version,
	)
	return RotateKeyResponse{NewVersion: version}, nil
}

func (s *Service) EncryptionStatus() EncryptionStatusResponse {
	info := s.vault.KeyInfo()
	return EncryptionStatusResponse{
		CurrentVersion:    info.CurrentVersion,
		AvailableVersions: info.AvailableVersions,
		Algorithm:         info.Algorithm,
	}
}

func (s *Service) PruneEncryptionKeys(req PruneKeysRequest) PruneKeysResponse {
	removed := s.vault.PruneKeys(req.Keep)
	s.logger.Info("encryption keys pruned",
		"operation", "prune_encryption_keys",
		"outcome", "success",
		"keep", req.Keep,
		"removed", removed,
	)
	return PruneKeysResponse{Removed: removed}
}
