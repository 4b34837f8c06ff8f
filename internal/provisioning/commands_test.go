package provisioning

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/go-logr/logr"
	ginkgo "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/imamik/hdcluster/internal/clientconfig"
	"github.com/imamik/hdcluster/internal/cloud"
	"github.com/imamik/hdcluster/internal/cluster"
	"github.com/imamik/hdcluster/internal/config"
	"github.com/imamik/hdcluster/internal/manifest"
	"github.com/imamik/hdcluster/internal/readiness"
	"github.com/imamik/hdcluster/internal/storage"
	testutil "github.com/imamik/hdcluster/internal/testing"
	"github.com/imamik/hdcluster/internal/userdata"
)

type staticIP struct {
	ip  string
	err error
}

func (s staticIP) GetPublicIP(context.Context) (string, error) { return s.ip, s.err }

type staticResolver []string

func (r staticResolver) LookupHost(context.Context, string) ([]string, error) { return r, nil }

// scriptedCounter returns counts in order, repeating the last one. A nil
// entry is reported as a probe failure.
type scriptedCounter struct {
	counts []*int
	calls  int
}

func (s *scriptedCounter) Count(context.Context, int) (int, error) {
	i := min(s.calls, len(s.counts)-1)
	s.calls++
	if s.counts[i] == nil {
		return 0, errors.New("connection refused")
	}
	return *s.counts[i], nil
}

func counts(values ...int) []*int {
	out := make([]*int, len(values))
	for i := range values {
		out[i] = &values[i]
	}
	return out
}

func renderedUserData(req cloud.RunRequest) string {
	data, err := userdata.Decompress(req.UserData)
	Expect(err).NotTo(HaveOccurred())
	return string(data)
}

var _ = ginkgo.Describe("Cluster commands", func() {
	var (
		provider     *testutil.FakeProvider
		orchestrator *storage.Orchestrator
		observer     *recordingObserver
		pctx         *Context
		cfg          *config.Config
		probe        *scriptedCounter
		probedHost   string
		slept        []time.Duration
	)

	ginkgo.BeforeEach(func() {
		provider = testutil.NewFakeProvider()
		provider.PendingDescribes = 1

		cfg = config.Default()
		cfg.StateDir = ginkgo.GinkgoT().TempDir()
		cfg.Instance = config.InstanceConfig{Image: "ami-1", KeyName: "ops", Type: "m1.large", Placement: "us-east-1a"}
		cfg.Credentials.AWSAccessKeyID = "AKIA"
		cfg.Credentials.AWSSecretAccessKey = "secret"
		cfg.Bootstrap.UserPackages = "lzo"
		cfg.Timeouts.PollInterval = time.Millisecond
		cfg.Timeouts.ServiceWait = time.Second
		cfg.Timeouts.InstanceWait = time.Second

		controller := cluster.NewController(provider, "prod", userdata.NewRenderer("#!/bin/sh\nexport %ENV%\n"),
			readiness.Poller{Interval: time.Millisecond, Timeout: time.Second}, logr.Discard())
		manifests := manifest.NewManager(manifest.NewFileStore(filepath.Join(cfg.StateDir, "storage-prod.json")))
		orchestrator = storage.NewOrchestrator(provider, manifests, logr.Discard())
		observer = &recordingObserver{}

		pctx = NewContext(context.Background(), cfg, controller, orchestrator, observer)
		pctx.PublicIP = staticIP{ip: "198.51.100.7"}
		pctx.Resolver = staticResolver{"2001:db8::1", "192.0.2.10"}
		probe = &scriptedCounter{counts: counts(0)}
		probedHost = ""
		pctx.NewProbe = func(host string) readiness.Counter {
			probedHost = host
			return probe
		}
		slept = nil
		pctx.Sleep = func(_ context.Context, d time.Duration) error {
			slept = append(slept, d)
			return nil
		}
	})

	ginkgo.Describe("LaunchCoordinator", func() {
		ginkgo.It("starts one coordinator with the configured instance settings", func() {
			Expect(LaunchCoordinator(pctx)).To(Succeed())

			Expect(provider.RunRequests).To(HaveLen(1))
			req := provider.RunRequests[0]
			Expect(req.Count).To(Equal(1))
			Expect(req.ImageID).To(Equal("ami-1"))
			Expect(req.KeyName).To(Equal("ops"))
			Expect(req.InstanceType).To(Equal("m1.large"))
			Expect(req.Placement).To(Equal("us-east-1a"))
			Expect(req.Groups).To(ConsistOf("prod", "prod-coordinator"))

			script := renderedUserData(req)
			Expect(script).To(ContainSubstring("AWS_ACCESS_KEY_ID=AKIA"))
			Expect(script).To(ContainSubstring("USER_PACKAGES=lzo"))
			Expect(script).To(ContainSubstring("EBS_MAPPINGS=''"))
			Expect(script).NotTo(ContainSubstring("MASTER_HOST"))

			Expect(pctx.State.Coordinator).NotTo(BeNil())
			Expect(pctx.State.Coordinator.State).To(Equal(cloud.InstanceRunning))
		})

		ginkgo.It("opens the client ports", func() {
			Expect(LaunchCoordinator(pctx)).To(Succeed())

			group, ok := provider.Group("prod-coordinator")
			Expect(ok).To(BeTrue())
			Expect(group.Rules).To(ConsistOf(
				cloud.TCPRule(80, 80, "198.51.100.7/32"),
				cloud.TCPRule(50030, 50030, "198.51.100.7/32"),
				cloud.TCPRule(8020, 8021, "192.0.2.10/32"),
			))
			Expect(pctx.State.ClientCIDRs).To(Equal([]string{"198.51.100.7/32"}))
		})

		ginkgo.It("prefers configured client CIDRs over the local address", func() {
			cfg.ClientCIDRs = []string{"10.0.0.0/8", "172.16.0.0/12"}
			pctx.PublicIP = staticIP{err: errors.New("must not be called")}

			Expect(LaunchCoordinator(pctx)).To(Succeed())

			group, _ := provider.Group("prod-coordinator")
			Expect(group.Rules).To(ContainElements(
				cloud.TCPRule(80, 80, "10.0.0.0/8"),
				cloud.TCPRule(50030, 50030, "172.16.0.0/12"),
			))
			Expect(group.Rules).To(HaveLen(5))
		})

		ginkgo.It("writes the client configuration", func() {
			Expect(LaunchCoordinator(pctx)).To(Succeed())

			Expect(pctx.State.ClientConfigPath).To(Equal(clientconfig.Path(cfg.StateDir, "prod")))
			data, err := os.ReadFile(pctx.State.ClientConfigPath)
			Expect(err).NotTo(HaveOccurred())
			conf, err := clientconfig.Parse(data)
			Expect(err).NotTo(HaveOccurred())
			value, ok := conf.Get("fs.s3.awsSecretAccessKey")
			Expect(ok).To(BeTrue())
			Expect(value).To(Equal("secret"))
		})

		ginkgo.It("refuses to start a second coordinator", func() {
			Expect(LaunchCoordinator(pctx)).To(Succeed())

			again := NewContext(context.Background(), cfg, pctx.Cluster, orchestrator, observer)
			err := LaunchCoordinator(again)
			Expect(err).To(MatchError(cluster.ErrAlreadyRunning))
			Expect(provider.CallCount("RunInstances")).To(Equal(1))
		})

		ginkgo.It("fails when the local address is unknown", func() {
			pctx.PublicIP = staticIP{err: errors.New("offline")}

			err := LaunchCoordinator(pctx)
			Expect(err).To(MatchError(ContainSubstring("client-access phase failed")))
			Expect(err).To(MatchError(ContainSubstring("offline")))
		})
	})

	ginkgo.Describe("LaunchWorkers", func() {
		ginkgo.It("requires a running coordinator", func() {
			err := LaunchWorkers(pctx, 2)
			Expect(err).To(MatchError(cluster.ErrCountMismatch))
			Expect(provider.RunRequests).To(BeEmpty())
		})

		ginkgo.It("rejects a non-positive count", func() {
			Expect(LaunchWorkers(pctx, 0)).To(MatchError(ContainSubstring("worker count must be positive")))
		})

		ginkgo.It("starts workers that inherit the coordinator's settings", func() {
			Expect(LaunchCoordinator(pctx)).To(Succeed())
			coord := *pctx.State.Coordinator

			Expect(LaunchWorkers(pctx, 3)).To(Succeed())

			Expect(provider.RunRequests).To(HaveLen(2))
			req := provider.RunRequests[1]
			Expect(req.Count).To(Equal(3))
			Expect(req.ImageID).To(Equal(coord.ImageID))
			Expect(req.InstanceType).To(Equal(coord.InstanceType))
			Expect(req.Groups).To(ConsistOf("prod", "prod-worker"))
			Expect(renderedUserData(req)).To(ContainSubstring("MASTER_HOST=" + coord.PublicDNSName))

			Expect(pctx.State.Workers).To(HaveLen(3))
			workers, err := pctx.Cluster.InstancesInRole(pctx, cluster.RoleWorker, cloud.InstanceRunning)
			Expect(err).NotTo(HaveOccurred())
			Expect(workers).To(HaveLen(3))
		})
	})

	ginkgo.Describe("LaunchCluster", func() {
		ginkgo.It("launches, attaches storage and waits for every worker", func() {
			Expect(orchestrator.CreateVolumes(pctx, cluster.RoleWorker, 2, "us-east-1a", []storage.VolumeSpec{
				{SizeGB: 10, MountPoint: "/ebs1", Device: "/dev/sdj"},
			})).To(Succeed())
			probe.counts = counts(0, 1, 2)

			Expect(LaunchCluster(pctx, 2)).To(Succeed())

			Expect(renderedUserData(provider.RunRequests[1])).To(ContainSubstring("EBS_MAPPINGS=/ebs1,/dev/sdj"))
			Expect(slept).To(Equal([]time.Duration{cfg.Timeouts.AttachSettle}))
			Expect(pctx.State.Attached[cluster.RoleWorker].Pairs).To(HaveLen(2))
			Expect(pctx.State.Attached[cluster.RoleCoordinator].Pairs).To(BeEmpty())
			Expect(pctx.State.WorkerCount).To(Equal(2))
			Expect(probedHost).To(Equal(pctx.State.Coordinator.PublicDNSName))
			Expect(observer.progress).To(Equal([][2]int{{1, 2}, {2, 2}}))
		})
	})

	ginkgo.Describe("AttachStorage", func() {
		ginkgo.It("does nothing without recorded storage", func() {
			Expect(AttachStorage(pctx, cluster.Roles)).To(Succeed())
			Expect(slept).To(BeEmpty())
			Expect(provider.CallCount("AttachVolume")).To(BeZero())
		})

		ginkgo.It("reports instances left without storage", func() {
			Expect(orchestrator.CreateVolumes(pctx, cluster.RoleWorker, 1, "us-east-1a", []storage.VolumeSpec{
				{SizeGB: 5, MountPoint: "/ebs1", Device: "/dev/sdj"},
			})).To(Succeed())
			Expect(LaunchCoordinator(pctx)).To(Succeed())
			Expect(LaunchWorkers(pctx, 2)).To(Succeed())

			Expect(AttachStorage(pctx, []string{cluster.RoleWorker})).To(Succeed())

			result := pctx.State.Attached[cluster.RoleWorker]
			Expect(result.Pairs).To(HaveLen(1))
			Expect(result.UnmatchedInstances).To(HaveLen(1))
			Expect(result.UnmatchedGroups).To(BeEmpty())
		})
	})

	ginkgo.Describe("WaitForService", func() {
		ginkgo.BeforeEach(func() {
			Expect(LaunchCoordinator(pctx)).To(Succeed())
		})

		ginkgo.It("returns once the coordinator answers when no workers are expected", func() {
			probe.counts = counts(0)
			n, err := WaitForService(pctx, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(BeZero())
		})

		ginkgo.It("tolerates failures until the coordinator answers", func() {
			probe.counts = []*int{nil, nil, counts(1)[0]}
			n, err := WaitForService(pctx, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(1))
		})

		ginkgo.It("gives up when the coordinator stops answering", func() {
			probe.counts = append(counts(0), nil)
			_, err := WaitForService(pctx, 3)
			Expect(err).To(MatchError(readiness.ErrTimeout))
		})
	})

	ginkgo.Describe("CoordinatorURL", func() {
		ginkgo.It("points at the coordinator's web server", func() {
			Expect(LaunchCoordinator(pctx)).To(Succeed())
			url, err := CoordinatorURL(NewContext(context.Background(), cfg, pctx.Cluster, orchestrator, observer))
			Expect(err).NotTo(HaveOccurred())
			Expect(url).To(Equal("http://" + pctx.State.Coordinator.PublicDNSName + "/"))
		})

		ginkgo.It("fails without a coordinator", func() {
			_, err := CoordinatorURL(pctx)
			Expect(err).To(MatchError(cluster.ErrCountMismatch))
		})
	})

	ginkgo.Describe("Teardown", func() {
		ginkgo.BeforeEach(func() {
			Expect(LaunchCoordinator(pctx)).To(Succeed())
			Expect(LaunchWorkers(pctx, 2)).To(Succeed())
		})

		ginkgo.It("terminates every running instance", func() {
			ids, err := TerminateCluster(pctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(ids).To(HaveLen(3))

			running, err := pctx.Cluster.InstancesInGroup(pctx, "prod", cloud.InstanceRunning)
			Expect(err).NotTo(HaveOccurred())
			Expect(running).To(BeEmpty())
			_, ok := provider.Group("prod")
			Expect(ok).To(BeTrue())
		})

		ginkgo.It("deletes the groups after the instances are gone", func() {
			Expect(DeleteCluster(pctx)).To(Succeed())

			for _, name := range []string{"prod", "prod-coordinator", "prod-worker"} {
				_, ok := provider.Group(name)
				Expect(ok).To(BeFalse(), name)
			}
			Expect(pctx.State.Terminated).To(HaveLen(3))
		})
	})
})
