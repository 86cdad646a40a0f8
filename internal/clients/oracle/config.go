package oracle

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ContractConfig names the on-chain oracle contract's address and the path
// to its ABI JSON, loaded from an optional oracle.yml file alongside the
// process's environment config.
type ContractConfig struct {
	Address string `yaml:"address"`
	ABIPath string `yaml:"abi"`
}

// LoadContractConfig reads a YAML file of the form:
//
//	address: "0x..."
//	abi: "./abi/oracle.json"
func LoadContractConfig(path string) (*ContractConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read oracle contract config %s: %w", path, err)
	}
	var cfg ContractConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse oracle contract config %s: %w", path, err)
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("oracle contract config %s: address is required", path)
	}
	return &cfg, nil
}
