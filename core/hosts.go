package core

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

type Host struct {
	Ip   string
	Port int
}

func (h Host) String() string {
	return net.JoinHostPort(h.Ip, strconv.Itoa(h.Port))
}

type Hosts struct {
	hosts []Host
}

// ProduceHosts parses a comma separated host[:port] list, using defaultPort where the
// port is omitted.
func ProduceHosts(arg string, defaultPort int) (*Hosts, error) {
	h := Hosts{}
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return &h, nil
	}

	sections := strings.Split(arg, ",")
	for i := 0; i < len(sections); i++ {
		host, err := h.getHost(strings.TrimSpace(sections[i]), defaultPort)
		if err != nil {
			return nil, err
		}
		h.hosts = append(h.hosts, host)
	}
	return &h, nil
}

func (h *Hosts) getHost(arg string, defaultPort int) (Host, error) {
	sections := strings.Split(arg, ":")
	if len(sections) == 1 {
		return Host{
			Ip:   arg,
			Port: defaultPort,
		}, nil
	}

	port, err := strconv.Atoi(sections[1])
	if err != nil {
		return Host{}, fmt.Errorf("parse port in %v failed: %w", arg, err)
	}

	return Host{
		Ip:   sections[0],
		Port: port,
	}, nil
}

func (h *Hosts) GetHosts() []Host {
	return h.hosts
}

func (h *Hosts) Addresses() []string {
	addresses := make([]string, len(h.hosts))
	for i := 0; i < len(h.hosts); i++ {
		addresses[i] = h.hosts[i].String()
	}
	return addresses
}
