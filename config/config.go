package config

func InitializeConfig() error {
	NewLoggerService()
	if err := ConnectDatabase(); err != nil {
		return err
	}
	if err := NewCacheService(); err != nil {
		return err
	}
	if err := ConnectKafka(); err != nil {
		return err
	}
	if err := LoadAssets(); err != nil {
		return err
	}

	return nil
}
